package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		" DEBUG ": slog.LevelDebug,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelInfo)

	logger := slog.New(newConsoleHandler(&buf, lvl))
	logger.Info("item completed", String(FieldItemID, "video_001"), Int(FieldAttempt, 2))

	out := buf.String()
	if !strings.Contains(out, "item completed") {
		t.Fatalf("missing message in output: %s", out)
	}
	if !strings.Contains(out, "item_id=video_001") {
		t.Fatalf("missing item_id attr in output: %s", out)
	}
	if !strings.Contains(out, "attempt=2") {
		t.Fatalf("missing attempt attr in output: %s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("color codes should be disabled for non-terminal writers: %q", out)
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)

	logger := slog.New(newConsoleHandler(&buf, lvl))
	logger.Info("suppressed")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Fatalf("info record should be filtered: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn record should pass: %s", out)
	}
}

func TestConsoleHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl)).With(String(FieldComponent, "orchestrator"))
	logger.Info("sweep started")

	if !strings.Contains(buf.String(), "component=orchestrator") {
		t.Fatalf("missing bound attr: %s", buf.String())
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should report disabled at all levels")
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
