// Package launchconfig resolves the launcher's configuration surface
// (spec §6 "Configuration surface"): explicit flag value, then
// environment variable, then built-in default — the same precedence
// codex-helper/internal/update/update.go uses for ResolveRepo,
// ResolveVersion, and ResolveInstallPath.
package launchconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvBasePath          = "MEINEAPP_BASE_PATH"
	EnvUpdateURL         = "MEINEAPP_UPDATE_URL"
	EnvPublicKeyPath     = "MEINEAPP_PUBLIC_KEY_PATH"
	EnvHeartbeatInterval = "MEINEAPP_HEARTBEAT_INTERVAL"
	EnvHeartbeatTimeout  = "MEINEAPP_HEARTBEAT_TIMEOUT"
	EnvHTTPTimeout       = "MEINEAPP_HTTP_TIMEOUT"
	EnvLogLevel          = "MEINEAPP_LOG_LEVEL"

	DefaultUpdateInfoURL     = "http://localhost:8000/update.json"
	DefaultHeartbeatInterval = 5 * time.Second
	DefaultHeartbeatTimeout  = 15 * time.Second
	DefaultHTTPTimeout       = 30 * time.Second
	DefaultLogLevel          = "info"
)

// LaunchConfig is the resolved configuration surface (spec §3 AMBIENT
// type).
type LaunchConfig struct {
	BasePath          string
	UpdateInfoURL     string
	PublicKeyPEM      []byte
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	HTTPTimeout       time.Duration
	LogLevel          string
}

// Flags carries the explicit values a caller (typically cobra flags)
// provides; zero values fall through to environment then default.
type Flags struct {
	BasePath          string
	UpdateInfoURL     string
	PublicKeyPath     string
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	HTTPTimeout       time.Duration
	LogLevel          string
}

// Resolve builds a LaunchConfig from explicit flags, falling back to
// MEINEAPP_* environment variables and then built-in defaults.
func Resolve(flags Flags) (LaunchConfig, error) {
	basePath, err := resolveBasePath(flags.BasePath)
	if err != nil {
		return LaunchConfig{}, err
	}

	keyPath := resolveString(flags.PublicKeyPath, "")
	if keyPath == "" {
		keyPath = strings.TrimSpace(os.Getenv(EnvPublicKeyPath))
	}
	if keyPath == "" {
		return LaunchConfig{}, fmt.Errorf("launchconfig: no public key configured (set --public-key-path or %s)", EnvPublicKeyPath)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return LaunchConfig{}, fmt.Errorf("launchconfig: read public key: %w", err)
	}

	heartbeatInterval, err := resolveDuration(flags.HeartbeatInterval, EnvHeartbeatInterval, DefaultHeartbeatInterval)
	if err != nil {
		return LaunchConfig{}, err
	}
	heartbeatTimeout, err := resolveDuration(flags.HeartbeatTimeout, EnvHeartbeatTimeout, DefaultHeartbeatTimeout)
	if err != nil {
		return LaunchConfig{}, err
	}
	httpTimeout, err := resolveDuration(flags.HTTPTimeout, EnvHTTPTimeout, DefaultHTTPTimeout)
	if err != nil {
		return LaunchConfig{}, err
	}

	return LaunchConfig{
		BasePath:          basePath,
		UpdateInfoURL:     resolveEnvString(flags.UpdateInfoURL, EnvUpdateURL, DefaultUpdateInfoURL),
		PublicKeyPEM:      keyPEM,
		HeartbeatInterval: heartbeatInterval,
		HeartbeatTimeout:  heartbeatTimeout,
		HTTPTimeout:       httpTimeout,
		LogLevel:          resolveEnvString(flags.LogLevel, EnvLogLevel, DefaultLogLevel),
	}, nil
}

func resolveBasePath(explicit string) (string, error) {
	if v := strings.TrimSpace(explicit); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv(EnvBasePath)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("launchconfig: resolve default base path: %w", err)
	}
	return home + string(os.PathSeparator) + "MeineFirma" + string(os.PathSeparator) + "MeineApp", nil
}

func resolveString(explicit, fallback string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	return fallback
}

func resolveEnvString(explicit, envVar, def string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		return v
	}
	return def
}

func resolveDuration(explicit time.Duration, envVar string, def time.Duration) (time.Duration, error) {
	if explicit > 0 {
		return explicit, nil
	}
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d, nil
		}
		if seconds, err := strconv.Atoi(v); err == nil {
			return time.Duration(seconds) * time.Second, nil
		}
		return 0, fmt.Errorf("launchconfig: invalid duration %q in %s", v, envVar)
	}
	return def, nil
}
