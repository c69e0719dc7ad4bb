// Command meineapp-launcher is the self-updating launcher binary: it
// drives one update/verify/launch cycle and supervises the launched
// application until it exits.
package main

import (
	"os"

	"github.com/meinefirma/meineapp-launcher/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
