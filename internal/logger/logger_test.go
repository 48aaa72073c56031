package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, ожидали %v", in, got, want)
		}
	}
}

func TestNewSlog_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlog(SlogConfig{Level: "info", Format: "json", Output: &buf})

	log.Debug("скрыто")
	log.Info("pereval submitted", "pereval_id", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("ожидали одну строку лога, получили %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("лог не является JSON: %v", err)
	}
	if entry["msg"] != "pereval submitted" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["pereval_id"] != float64(7) {
		t.Errorf("pereval_id = %v", entry["pereval_id"])
	}
	if entry["service"] != "pereval" {
		t.Errorf("service = %v", entry["service"])
	}
	ts, _ := entry["time"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q не в RFC3339: %v", ts, err)
	}
}

func TestNewSlog_Text(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlog(SlogConfig{Level: "debug", Format: "text", Output: &buf})
	log.Debug("debug message")
	if !strings.Contains(buf.String(), "debug message") {
		t.Errorf("текстовый лог не содержит сообщение: %q", buf.String())
	}
}
