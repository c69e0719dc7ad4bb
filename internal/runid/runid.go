// Package runid generates short opaque identifiers for correlating a
// single launcher run's log lines.
//
// Adapted from codex-helper/internal/ids.New's crypto/rand-backed hex
// ID generator.
package runid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// New returns a 32-character hex identifier, unique with overwhelming
// probability across concurrent callers.
func New() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("runid: rand: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
