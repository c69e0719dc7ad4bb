package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meinefirma/meineapp-launcher/internal/slotstore"
)

func newWipeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "wipe",
		Short: "Remove both slots and the active marker, forcing a clean re-bootstrap on the next run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWipe(cmd, root)
		},
	}
}

func runWipe(cmd *cobra.Command, root *rootOptions) error {
	cfg, err := resolveConfig(root)
	if err != nil {
		return err
	}

	store, err := slotstore.New(cfg.BasePath)
	if err != nil {
		return fmt.Errorf("slot store: %w", err)
	}

	if err := store.WipeAll(); err != nil {
		return fmt.Errorf("wipe: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "wiped")
	return nil
}
