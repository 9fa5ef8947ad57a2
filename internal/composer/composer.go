// Package composer renders the final video with ffmpeg: scene images become
// a timed slideshow via the concat demuxer, and the narration (plus an
// optional music bed) is muxed underneath.
package composer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
	"reelsmith/internal/worklist"
)

const (
	frameRate   = 30
	musicVolume = 0.2
)

// Composer turns pipeline assets into a published-ready mp4.
type Composer struct {
	ffmpeg    string
	width     int
	height    int
	outputDir string
	logger    *slog.Logger
}

// New constructs a composer from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Composer{
		ffmpeg:    cfg.FFmpegBinary(),
		width:     cfg.Visuals.Width,
		height:    cfg.Visuals.Height,
		outputDir: cfg.Paths.OutputDir,
		logger:    logger.With(logging.String(logging.FieldComponent, "composer")),
	}
}

// Compose renders the final video for the item and returns its path.
// Reruns overwrite the previous output.
func (c *Composer) Compose(ctx context.Context, item worklist.Item, assets *pipeline.Assets) (string, error) {
	if len(assets.ScenePaths) == 0 {
		return "", services.Wrap(services.ErrValidation, worklist.StageComposition, "compose", "no scene images to render", nil)
	}
	if len(assets.ScenePaths) != len(assets.Script.Scenes) {
		return "", services.Wrap(services.ErrValidation, worklist.StageComposition, "compose",
			fmt.Sprintf("scene count mismatch: %d images for %d scenes", len(assets.ScenePaths), len(assets.Script.Scenes)), nil)
	}
	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrInfrastructure, worklist.StageComposition, "compose", "create output dir", err)
	}

	log := logging.WithContext(ctx, c.logger)

	listPath := filepath.Join(assets.Dir, "scenes_concat.txt")
	if err := os.WriteFile(listPath, []byte(buildConcatList(assets)), 0o644); err != nil {
		return "", services.Wrap(services.ErrInfrastructure, worklist.StageComposition, "compose", "write concat list", err)
	}

	silentPath := filepath.Join(assets.Dir, "slideshow.mp4")
	if err := c.run(ctx, "slideshow", buildSlideshowArgs(listPath, silentPath, c.width, c.height)); err != nil {
		return "", err
	}

	finalPath := filepath.Join(c.outputDir, item.ID+".mp4")
	if err := c.run(ctx, "mux", buildMuxArgs(silentPath, assets.VoiceoverPath, assets.MusicPath, finalPath)); err != nil {
		return "", err
	}

	info, err := os.Stat(finalPath)
	if err != nil || info.Size() == 0 {
		return "", services.Wrap(services.ErrExternalTool, worklist.StageComposition, "compose",
			fmt.Sprintf("ffmpeg produced no output at %s", finalPath), err)
	}

	log.Info("video composed",
		logging.String("output", finalPath),
		logging.Int64("size_bytes", info.Size()))
	return finalPath, nil
}

func (c *Composer) run(ctx context.Context, op string, args []string) error {
	cmd := exec.CommandContext(ctx, c.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return services.Wrap(services.ErrExternalTool, worklist.StageComposition, op,
			fmt.Sprintf("ffmpeg failed: %s", lastLines(detail, 3)), err)
	}
	return nil
}

// buildConcatList writes the concat demuxer input: each image with its scene
// duration. The final image is listed twice because the demuxer ignores the
// duration of the last entry.
func buildConcatList(assets *pipeline.Assets) string {
	var b strings.Builder
	for i, path := range assets.ScenePaths {
		fmt.Fprintf(&b, "file '%s'\n", path)
		fmt.Fprintf(&b, "duration %.3f\n", assets.Script.Scenes[i].DurationSec)
	}
	fmt.Fprintf(&b, "file '%s'\n", assets.ScenePaths[len(assets.ScenePaths)-1])
	return b.String()
}

func buildSlideshowArgs(listPath, outPath string, width, height int) []string {
	scaleFilter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		width, height, width, height,
	)
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-vf", scaleFilter,
		"-r", fmt.Sprintf("%d", frameRate),
		"-pix_fmt", "yuv420p",
		"-an",
		outPath,
	}
}

func buildMuxArgs(videoPath, voicePath, musicPath, outPath string) []string {
	args := []string{"-y", "-i", videoPath, "-i", voicePath}
	if musicPath != "" {
		filter := fmt.Sprintf(
			"[2:a]volume=%.2f,aloop=loop=-1:size=2e9[bed];[1:a][bed]amix=inputs=2:duration=first:normalize=0[aout]",
			musicVolume,
		)
		args = append(args,
			"-i", musicPath,
			"-filter_complex", filter,
			"-map", "0:v",
			"-map", "[aout]",
		)
	} else {
		args = append(args,
			"-map", "0:v",
			"-map", "1:a",
		)
	}
	return append(args,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		outPath,
	)
}

func lastLines(text string, n int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
