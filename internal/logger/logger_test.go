package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestJSONFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Info("hello")

	entry := decodeLine(t, &buf)
	if entry["message"] != "hello" {
		t.Errorf("message = %v, want hello", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["timestamp"] == nil {
		t.Error("timestamp field missing")
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		level     string
		logged    string
		wantEmpty bool
	}{
		{name: "debug suppressed at info", level: "info", logged: "debug", wantEmpty: true},
		{name: "info suppressed at warn", level: "warn", logged: "info", wantEmpty: true},
		{name: "warn suppressed at error", level: "error", logged: "warn", wantEmpty: true},
		{name: "debug emitted at debug", level: "debug", logged: "debug", wantEmpty: false},
		{name: "error always emitted", level: "error", logged: "error", wantEmpty: false},
		{name: "unknown level defaults to info", level: "chatty", logged: "debug", wantEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			log := NewWithWriter(tt.level, &buf)

			switch tt.logged {
			case "debug":
				log.Debug("msg")
			case "info":
				log.Info("msg")
			case "warn":
				log.Warn("msg")
			case "error":
				log.Error("msg")
			}

			if got := buf.Len() == 0; got != tt.wantEmpty {
				t.Errorf("empty output = %v, want %v (buffer: %q)", got, tt.wantEmpty, buf.String())
			}
		})
	}
}

func TestWarnLevelName(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.Warn("careful")

	entry := decodeLine(t, &buf)
	if entry["level"] != "warning" {
		t.Errorf("level = %v, want warning", entry["level"])
	}
}

func TestWithFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithModule("bot").
		WithSessionID("abc-123").
		WithField("turns", 3).
		WithError(errors.New("boom")).
		Info("turn done")

	entry := decodeLine(t, &buf)
	if entry["module"] != "bot" {
		t.Errorf("module = %v, want bot", entry["module"])
	}
	if entry["session_id"] != "abc-123" {
		t.Errorf("session_id = %v, want abc-123", entry["session_id"])
	}
	if entry["turns"] != float64(3) {
		t.Errorf("turns = %v, want 3", entry["turns"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v, want boom", entry["error"])
	}
}

func TestInfof(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Infof("loaded %d entries", 42)

	entry := decodeLine(t, &buf)
	if entry["message"] != "loaded 42 entries" {
		t.Errorf("message = %v, want loaded 42 entries", entry["message"])
	}
}
