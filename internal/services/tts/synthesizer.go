// Package tts synthesizes narration audio by shelling out to a
// text-to-speech command such as edge-tts.
package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/services"
	"reelsmith/internal/worklist"
)

// Synthesizer runs the configured TTS command once per narration.
type Synthesizer struct {
	command string
	voice   string
	timeout time.Duration
}

// New constructs a synthesizer from configuration.
func New(cfg *config.Config) *Synthesizer {
	timeout := 5 * time.Minute
	if cfg.TTS.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TTS.TimeoutSeconds) * time.Second
	}
	return &Synthesizer{
		command: strings.TrimSpace(cfg.TTS.Command),
		voice:   strings.TrimSpace(cfg.TTS.Voice),
		timeout: timeout,
	}
}

// Command returns the configured TTS executable.
func (s *Synthesizer) Command() string {
	return s.command
}

// Synthesize writes spoken narration to outputPath. The output format
// follows the file extension (edge-tts produces mp3).
func (s *Synthesizer) Synthesize(ctx context.Context, narration, outputPath string) error {
	narration = strings.TrimSpace(narration)
	if narration == "" {
		return services.Wrap(services.ErrValidation, worklist.StageVoiceover, "synthesize", "narration required", nil)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := s.buildCommand(runCtx, narration, outputPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, worklist.StageVoiceover, "synthesize",
				fmt.Sprintf("%s timed out after %s", s.command, s.timeout), err)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return services.Wrap(services.ErrExternalTool, worklist.StageVoiceover, "synthesize",
			fmt.Sprintf("%s failed: %s", s.command, summarizeOutput(detail)), err)
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, worklist.StageVoiceover, "synthesize",
			fmt.Sprintf("%s produced no audio at %s", s.command, outputPath), err)
	}
	return nil
}

func (s *Synthesizer) buildCommand(ctx context.Context, narration, outputPath string) *exec.Cmd {
	switch {
	case s.command == "edge-tts":
		args := []string{"--text", narration, "--write-media", outputPath}
		if s.voice != "" {
			args = append([]string{"--voice", s.voice}, args...)
		}
		return exec.CommandContext(ctx, s.command, args...)
	case strings.HasSuffix(s.command, ".py"):
		return exec.CommandContext(ctx, "python3", s.command, "--text", narration, "--output", outputPath)
	default:
		return exec.CommandContext(ctx, s.command, "--text", narration, "--output", outputPath)
	}
}

// HealthCheck verifies the TTS command is on PATH.
func (s *Synthesizer) HealthCheck(ctx context.Context) error {
	binary := s.command
	if strings.HasSuffix(binary, ".py") {
		binary = "python3"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return services.Wrap(services.ErrConfiguration, worklist.StageVoiceover, "health",
			fmt.Sprintf("%s not found on PATH", binary), err)
	}
	return nil
}

func summarizeOutput(output string) string {
	clean := strings.Join(strings.Fields(output), " ")
	const limit = 200
	if len(clean) > limit {
		clean = clean[:limit] + "..."
	}
	return clean
}
