package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConfigureAppliesLevelAndOutput(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "warn", Output: &buf})

	logger := L()
	logger.Info().Msg("should be filtered")
	logger.Warn().Msg("should appear")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Fatalf("info line leaked through a warn-level logger: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("expected warn line in output, got %q", out)
	}
}

func TestWithComponentAnnotatesLines(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "info", Output: &buf})

	WithComponent("orchestrator").Info().Msg("hello")

	var entry map[string]any
	line := bytes.TrimSpace(buf.Bytes())
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["component"] != "orchestrator" {
		t.Fatalf("expected component=orchestrator, got %v", entry["component"])
	}
	if entry["service"] != "meineapp-launcher" {
		t.Fatalf("expected service=meineapp-launcher, got %v", entry["service"])
	}
}
