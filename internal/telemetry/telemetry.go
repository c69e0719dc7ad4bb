// Package telemetry provides the launcher's structured logging sink.
//
// Grounded on ManuGH-xg2g/internal/log/logger.go's global rs/zerolog
// logger (Configure(cfg) setting level/writer once, package-level
// accessors returning a zerolog.Logger), trimmed to what a single
// long-running launcher process needs: no OpenTelemetry trace
// correlation (there is no HTTP request path to correlate), no audit
// sub-logger, no in-memory log buffer.
package telemetry

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config configures the global logger.
type Config struct {
	Level  string    // "debug", "info", "warn", "error"; defaults to "info"
	Output io.Writer // defaults to os.Stdout
}

var (
	mu          sync.RWMutex
	base        zerolog.Logger
	initialized bool
)

// Configure initializes the global logger. Safe to call more than
// once; the latest call wins.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	writer := cfg.Output
	if writer == nil {
		writer = os.Stdout
	}

	base = zerolog.New(writer).With().
		Timestamp().
		Str("service", "meineapp-launcher").
		Logger()
	initialized = true
}

func ensureInitialized() {
	mu.RLock()
	if initialized {
		mu.RUnlock()
		return
	}
	mu.RUnlock()
	Configure(Config{})
}

func logger() zerolog.Logger {
	ensureInitialized()
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// L returns the configured global logger.
func L() *zerolog.Logger {
	l := logger()
	return &l
}

// WithComponent returns a child logger annotated with the given
// component name, for the Orchestrator/Supervisor/CLI to tag their own
// log lines.
func WithComponent(component string) zerolog.Logger {
	return logger().With().Str("component", component).Logger()
}
