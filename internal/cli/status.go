package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meinefirma/meineapp-launcher/internal/launchconfig"
	"github.com/meinefirma/meineapp-launcher/internal/slotstore"
	"github.com/meinefirma/meineapp-launcher/internal/version"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the active slot and its local version without launching anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, root)
		},
	}
}

func runStatus(cmd *cobra.Command, root *rootOptions) error {
	cfg, err := resolveConfig(root)
	if err != nil {
		return err
	}

	store, err := slotstore.New(cfg.BasePath)
	if err != nil {
		return fmt.Errorf("slot store: %w", err)
	}

	active, err := store.ReadActive()
	if err != nil {
		return fmt.Errorf("read active slot: %w", err)
	}

	activeDir := store.PathOf(active)
	inactiveDir := store.PathOf(active.Other())

	fmt.Fprintf(cmd.OutOrStdout(), "active slot:    %s\n", active)
	fmt.Fprintf(cmd.OutOrStdout(), "active version: %s\n", version.Local(activeDir))
	fmt.Fprintf(cmd.OutOrStdout(), "other slot:     %s\n", active.Other())
	fmt.Fprintf(cmd.OutOrStdout(), "other version:  %s\n", version.Local(inactiveDir))
	return nil
}
