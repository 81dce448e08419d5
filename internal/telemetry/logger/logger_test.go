package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "text", Output: &buf})
	log.Info("hidden")
	log.Warn("visible")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatal("info record emitted at warn level")
	}
	if !strings.Contains(out, "visible") {
		t.Fatal("warn record missing")
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "error", Format: "json", Output: &buf})
	log.Info("first")
	SetLevel("debug")
	log.Info("second")
	out := buf.String()
	if strings.Contains(out, "first") {
		t.Fatal("info record emitted at error level")
	}
	if !strings.Contains(out, "second") {
		t.Fatal("record missing after SetLevel")
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})
	log.Info("hello", "key", "value")
	if !strings.Contains(buf.String(), `"key":"value"`) {
		t.Fatalf("output not JSON: %q", buf.String())
	}
}
