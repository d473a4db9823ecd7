package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", "json", &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug().Str("section", "patient").Msg("patched")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["level"] != "debug" || entry["section"] != "patient" || entry["message"] != "patched" {
		t.Errorf("unexpected entry %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected timestamp")
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("WARN", "json", &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn, got %q", buf.String())
	}
	logger.Warn().Msg("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("warn should pass, got %q", buf.String())
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "text", &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info().Str("profile", "FDA").Msg("validated")
	out := buf.String()
	if strings.HasPrefix(out, "{") {
		t.Errorf("text format should not emit JSON: %q", out)
	}
	if !strings.Contains(out, "validated") || !strings.Contains(out, "profile=FDA") {
		t.Errorf("unexpected console output %q", out)
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New("loud", "json", &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown level")
	}
}
