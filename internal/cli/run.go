package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meinefirma/meineapp-launcher/internal/fetcher"
	"github.com/meinefirma/meineapp-launcher/internal/launchconfig"
	"github.com/meinefirma/meineapp-launcher/internal/manifest"
	"github.com/meinefirma/meineapp-launcher/internal/orchestrator"
	"github.com/meinefirma/meineapp-launcher/internal/runid"
	"github.com/meinefirma/meineapp-launcher/internal/slotstore"
	"github.com/meinefirma/meineapp-launcher/internal/supervisor"
	"github.com/meinefirma/meineapp-launcher/internal/telemetry"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Drive one full update/launch cycle and supervise the child until it exits",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLauncher(cmd, root)
		},
	}
}

func runLauncher(cmd *cobra.Command, root *rootOptions) error {
	cfg, err := resolveConfig(root)
	if err != nil {
		return err
	}

	telemetry.Configure(telemetry.Config{Level: cfg.LogLevel, Output: cmd.OutOrStdout()})

	id, err := runid.New()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	log := telemetry.WithComponent("orchestrator").With().Str("run_id", id).Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}

	statusDone := make(chan struct{})
	go func() {
		defer close(statusDone)
		for msg := range o.Status {
			event := log.Info()
			if msg.Err != nil {
				event = log.Warn()
			}
			event.Str("stage", string(msg.Stage)).Msg(msg.Message)
		}
	}()

	h, runErr := o.Run(ctx, func(code int) {
		log.Info().Int("exit_code", code).Msg("child exited")
	})
	close(o.Status)
	<-statusDone

	if runErr != nil {
		return fmt.Errorf("run: %w", runErr)
	}

	h.Wait()
	return nil
}

func resolveConfig(root *rootOptions) (launchconfig.LaunchConfig, error) {
	return launchconfig.Resolve(launchconfig.Flags{
		BasePath:          root.basePath,
		UpdateInfoURL:     root.updateInfoURL,
		PublicKeyPath:     root.publicKeyPath,
		HeartbeatInterval: root.heartbeatInterval,
		HeartbeatTimeout:  root.heartbeatTimeout,
		LogLevel:          root.logLevel,
	})
}

func buildOrchestrator(cfg launchconfig.LaunchConfig) (*orchestrator.Orchestrator, error) {
	store, err := slotstore.New(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("slot store: %w", err)
	}

	v, err := manifest.NewVerifier(cfg.PublicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("manifest verifier: %w", err)
	}

	return &orchestrator.Orchestrator{
		Store:    store,
		Fetcher:  fetcher.New(cfg.UpdateInfoURL, cfg.HTTPTimeout),
		Verifier: v,
		Supervisor: supervisor.New(supervisor.Options{
			HeartbeatInterval: cfg.HeartbeatInterval,
			HeartbeatTimeout:  cfg.HeartbeatTimeout,
			LineSink: func(line string) {
				telemetry.WithComponent("child").Info().Msg(line)
			},
		}),
		Status: make(chan orchestrator.StatusMessage, 64),
	}, nil
}
