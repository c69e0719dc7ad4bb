package launchconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeKeyFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, []byte("-----BEGIN PUBLIC KEY-----\n-----END PUBLIC KEY-----\n"), 0o644); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	return path
}

func TestResolveUsesExplicitFlagsOverEverything(t *testing.T) {
	t.Setenv(EnvBasePath, "/env/base")
	t.Setenv(EnvUpdateURL, "http://env.invalid/update.json")

	keyPath := writeKeyFile(t)
	cfg, err := Resolve(Flags{
		BasePath:      "/explicit/base",
		UpdateInfoURL: "http://explicit.invalid/update.json",
		PublicKeyPath: keyPath,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.BasePath != "/explicit/base" {
		t.Fatalf("BasePath = %q, want explicit value", cfg.BasePath)
	}
	if cfg.UpdateInfoURL != "http://explicit.invalid/update.json" {
		t.Fatalf("UpdateInfoURL = %q, want explicit value", cfg.UpdateInfoURL)
	}
}

func TestResolveFallsBackToEnvironment(t *testing.T) {
	t.Setenv(EnvBasePath, "/env/base")
	t.Setenv(EnvUpdateURL, "http://env.invalid/update.json")
	t.Setenv(EnvHeartbeatTimeout, "42s")

	keyPath := writeKeyFile(t)
	cfg, err := Resolve(Flags{PublicKeyPath: keyPath})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.BasePath != "/env/base" {
		t.Fatalf("BasePath = %q, want env value", cfg.BasePath)
	}
	if cfg.UpdateInfoURL != "http://env.invalid/update.json" {
		t.Fatalf("UpdateInfoURL = %q, want env value", cfg.UpdateInfoURL)
	}
	if cfg.HeartbeatTimeout != 42*time.Second {
		t.Fatalf("HeartbeatTimeout = %v, want 42s", cfg.HeartbeatTimeout)
	}
}

func TestResolveFallsBackToDefaults(t *testing.T) {
	keyPath := writeKeyFile(t)
	cfg, err := Resolve(Flags{BasePath: "/explicit/base", PublicKeyPath: keyPath})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.UpdateInfoURL != DefaultUpdateInfoURL {
		t.Fatalf("UpdateInfoURL = %q, want default %q", cfg.UpdateInfoURL, DefaultUpdateInfoURL)
	}
	if cfg.HeartbeatInterval != DefaultHeartbeatInterval {
		t.Fatalf("HeartbeatInterval = %v, want default %v", cfg.HeartbeatInterval, DefaultHeartbeatInterval)
	}
	if cfg.HeartbeatTimeout != DefaultHeartbeatTimeout {
		t.Fatalf("HeartbeatTimeout = %v, want default %v", cfg.HeartbeatTimeout, DefaultHeartbeatTimeout)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("LogLevel = %q, want default %q", cfg.LogLevel, DefaultLogLevel)
	}
}

func TestResolveRequiresPublicKey(t *testing.T) {
	if _, err := Resolve(Flags{BasePath: "/explicit/base"}); err == nil {
		t.Fatalf("expected error when no public key is configured")
	}
}

func TestResolveRejectsUnparsableEnvDuration(t *testing.T) {
	t.Setenv(EnvHeartbeatInterval, "not-a-duration")
	keyPath := writeKeyFile(t)
	if _, err := Resolve(Flags{BasePath: "/explicit/base", PublicKeyPath: keyPath}); err == nil {
		t.Fatalf("expected error for unparsable heartbeat interval")
	}
}
