package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewEmitsServiceFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "troved", "test", slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("ledger genesis", "allocations", 2)

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["service"] != "troved" || line["env"] != "test" {
		t.Fatalf("missing base attributes: %v", line)
	}
	if line["severity"] != "INFO" || line["message"] != "ledger genesis" {
		t.Fatalf("unexpected renamed keys: %v", line)
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatalf("missing timestamp: %v", line)
	}
}

func TestMaskField(t *testing.T) {
	if attr := MaskField("remote", "10.0.0.1"); attr.Value.String() != RedactedValue {
		t.Fatalf("expected remote address to be masked, got %s", attr.Value)
	}
	if attr := MaskField("owner", "0xabc"); attr.Value.String() != "0xabc" {
		t.Fatalf("expected owner to pass through, got %s", attr.Value)
	}
	if attr := MaskField("Request_ID", "r-1"); attr.Value.String() != "r-1" {
		t.Fatalf("allowlist must be case insensitive, got %s", attr.Value)
	}
	if MaskValue("  ") != "  " {
		t.Fatalf("empty values must stay empty")
	}
}
