package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestKey(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, []byte("-----BEGIN PUBLIC KEY-----\n-----END PUBLIC KEY-----\n"), 0o644); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return path
}

func TestVersionCommandPrintsBuildVersion(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.TrimSpace(out.String()) != buildVersion {
		t.Fatalf("got %q, want %q", out.String(), buildVersion)
	}
}

func TestStatusCommandBootstrapsAndReportsSlotA(t *testing.T) {
	base := t.TempDir()
	keyPath := writeTestKey(t)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"status", "--base-path", base, "--public-key-path", keyPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "active slot:    A") {
		t.Fatalf("expected status to report active slot A, got %q", out.String())
	}
}

func TestWipeCommandRemovesBootstrapState(t *testing.T) {
	base := t.TempDir()
	keyPath := writeTestKey(t)

	bootstrap := newRootCmd()
	bootstrap.SetArgs([]string{"status", "--base-path", base, "--public-key-path", keyPath})
	if err := bootstrap.Execute(); err != nil {
		t.Fatalf("bootstrap Execute: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "active.txt")); err != nil {
		t.Fatalf("expected marker to exist after bootstrap: %v", err)
	}

	wipe := newRootCmd()
	var out bytes.Buffer
	wipe.SetOut(&out)
	wipe.SetArgs([]string{"wipe", "--base-path", base, "--public-key-path", keyPath})
	if err := wipe.Execute(); err != nil {
		t.Fatalf("wipe Execute: %v", err)
	}
	if strings.TrimSpace(out.String()) != "wiped" {
		t.Fatalf("got %q, want \"wiped\"", out.String())
	}
	if _, err := os.Stat(filepath.Join(base, "active.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected marker to be gone after wipe, err=%v", err)
	}
}

func TestStatusCommandFailsWithoutPublicKey(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"status", "--base-path", t.TempDir()})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error when no public key is configured")
	}
}
