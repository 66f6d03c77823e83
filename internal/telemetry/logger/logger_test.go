package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T, level, format string) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: format, Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogger_Levels(t *testing.T) {
	l, buf := newBufferLogger(t, "debug", "json")

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("resolved snapshot", "region", "KR")

			entry := decodeEntry(t, buf)
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["msg"] != "resolved snapshot" || entry["region"] != "KR" {
				t.Errorf("entry = %v", entry)
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")

	l.With("component", "resolver").Info("ok")

	if entry := decodeEntry(t, buf); entry["component"] != "resolver" {
		t.Errorf("component = %v", entry["component"])
	}
}

func TestSetLevel(t *testing.T) {
	l, buf := newBufferLogger(t, "error", "json")
	t.Cleanup(func() { SetLevel("info") })

	l.Info("filtered")
	if buf.Len() > 0 {
		t.Fatal("Info should be filtered at error level")
	}

	if !SetLevel("debug") {
		t.Fatal("SetLevel(debug) reported no change from error")
	}
	l.Debug("visible")
	if buf.Len() == 0 {
		t.Error("Debug should be logged after level changed")
	}
	if Level() != "debug" {
		t.Errorf("Level() = %q, want debug", Level())
	}
	if SetLevel("DEBUG") {
		t.Error("SetLevel(DEBUG) reported a change at debug")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{" warn ", slog.LevelWarn},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	prevSlog := slog.Default()
	t.Cleanup(func() {
		SetDefault(prev)
		slog.SetDefault(prevSlog)
	})

	l, buf := newBufferLogger(t, "info", "json")
	SetDefault(l)

	FromContext(context.Background()).Info("fallback")
	if !strings.Contains(buf.String(), "fallback") {
		t.Errorf("FromContext() output = %q", buf.String())
	}

	buf.Reset()
	slog.Info("through slog")
	if !strings.Contains(buf.String(), "through slog") {
		t.Errorf("slog default not replaced, output = %q", buf.String())
	}

	if l.Slog() == nil {
		t.Error("Slog() returned nil")
	}
}

func TestLogger_TextFormat(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "text")

	l.Info("server started", "addr", "127.0.0.1:8080")

	out := buf.String()
	if !strings.Contains(out, "server started") || !strings.Contains(out, "addr=127.0.0.1:8080") {
		t.Errorf("text output = %s", out)
	}
}

func TestLogger_RedactsAttributes(t *testing.T) {
	l, buf := newBufferLogger(t, "info", "json")

	l.Info("exporter configured", "otlp_token", "abc123", "header", "Bearer xyz", "region", "KR")

	entry := decodeEntry(t, buf)
	if entry["otlp_token"] != redactedValue {
		t.Errorf("otlp_token = %v", entry["otlp_token"])
	}
	if entry["header"] != "Bearer "+redactedValue {
		t.Errorf("header = %v", entry["header"])
	}
	if entry["region"] != "KR" {
		t.Errorf("region = %v", entry["region"])
	}
}
