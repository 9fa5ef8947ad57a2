package tts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reelsmith/internal/config"
	"reelsmith/internal/services"
)

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func newSynthesizer(t *testing.T, command string) *Synthesizer {
	t.Helper()
	cfg := config.Default()
	cfg.TTS.Command = command
	cfg.TTS.TimeoutSeconds = 5
	return New(&cfg)
}

func TestSynthesizeWritesOutput(t *testing.T) {
	dir := t.TempDir()
	stub := writeStub(t, dir, "fake-tts", `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    --output) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
printf 'audio' > "$out"
`)

	synth := newSynthesizer(t, stub)
	out := filepath.Join(dir, "voice.mp3")
	if err := synth.Synthesize(context.Background(), "hello world", out); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "audio" {
		t.Fatalf("unexpected output contents: %q", data)
	}
}

func TestSynthesizeReportsCommandFailure(t *testing.T) {
	dir := t.TempDir()
	stub := writeStub(t, dir, "fail-tts", `#!/bin/sh
echo "synthesis backend unavailable" >&2
exit 1
`)

	synth := newSynthesizer(t, stub)
	err := synth.Synthesize(context.Background(), "hello", filepath.Join(dir, "voice.mp3"))
	if err == nil {
		t.Fatal("expected error from failing command")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	details := services.Details(err)
	if details.Stage != "voiceover" {
		t.Fatalf("unexpected stage: %q", details.Stage)
	}
}

func TestSynthesizeRejectsEmptyNarration(t *testing.T) {
	synth := newSynthesizer(t, "edge-tts")
	err := synth.Synthesize(context.Background(), "   ", "out.mp3")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestSynthesizeFailsWhenNoAudioProduced(t *testing.T) {
	dir := t.TempDir()
	stub := writeStub(t, dir, "noop-tts", "#!/bin/sh\nexit 0\n")

	synth := newSynthesizer(t, stub)
	err := synth.Synthesize(context.Background(), "hello", filepath.Join(dir, "voice.mp3"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
}

func TestHealthCheckMissingBinary(t *testing.T) {
	synth := newSynthesizer(t, "definitely-not-a-real-tts-binary")
	err := synth.HealthCheck(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}
