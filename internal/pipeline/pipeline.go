// Package pipeline turns a work item into the set of media assets the
// composer needs: a structured script, narration audio, scene images, and
// optionally a music bed. The script is generated first; everything that
// depends on it is synthesized concurrently.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/worklist"
)

// ScriptGenerator produces the structured script for a topic.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, topic, hints string) (*llm.Script, error)
}

// VoiceSynthesizer renders narration text to an audio file.
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, narration, outputPath string) error
}

// SceneFetcher generates one image per scene prompt.
type SceneFetcher interface {
	Fetch(ctx context.Context, prompt, style string, sceneIndex int, outputPath string) error
}

// MusicFetcher downloads an optional background track.
type MusicFetcher interface {
	Enabled() bool
	Fetch(ctx context.Context, mood, outputPath string) error
}

// Assets is everything the composer consumes for one item.
type Assets struct {
	Script        *llm.Script
	Dir           string
	VoiceoverPath string
	// MusicPath is empty when music is disabled.
	MusicPath  string
	ScenePaths []string
}

// Generator coordinates the asset services for one item at a time.
type Generator struct {
	workDir string
	scripts ScriptGenerator
	voice   VoiceSynthesizer
	scenes  SceneFetcher
	music   MusicFetcher
	logger  *slog.Logger
}

// NewGenerator wires the asset services together.
func NewGenerator(cfg *config.Config, scripts ScriptGenerator, voice VoiceSynthesizer, scenes SceneFetcher, music MusicFetcher, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{
		workDir: cfg.Paths.WorkDir,
		scripts: scripts,
		voice:   voice,
		scenes:  scenes,
		music:   music,
		logger:  logger.With(logging.String(logging.FieldComponent, "pipeline")),
	}
}

// Generate produces all assets for the item under a per-item directory.
// Reruns reuse the same directory and overwrite previous attempts, so a
// failed attempt leaves nothing that blocks a retry.
func (g *Generator) Generate(ctx context.Context, item worklist.Item) (*Assets, error) {
	dir := filepath.Join(g.workDir, item.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrInfrastructure, worklist.StageScript, "prepare",
			fmt.Sprintf("create work dir for item %s", item.ID), err)
	}

	log := logging.WithContext(ctx, g.logger)

	script, err := g.scripts.GenerateScript(ctx, item.Topic, item.PromptHints)
	if err != nil {
		return nil, err
	}
	log.Info("script generated",
		logging.String("title", script.Title),
		logging.Int("scenes", len(script.Scenes)),
		logging.Float64("duration_seconds", script.TotalDuration()))

	assets := &Assets{
		Script:        script,
		Dir:           dir,
		VoiceoverPath: filepath.Join(dir, "voiceover.mp3"),
		ScenePaths:    make([]string, len(script.Scenes)),
	}
	for i := range script.Scenes {
		assets.ScenePaths[i] = filepath.Join(dir, fmt.Sprintf("scene_%03d.jpg", i+1))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		record(g.voice.Synthesize(ctx, script.Narration, assets.VoiceoverPath))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i, scene := range script.Scenes {
			if err := g.scenes.Fetch(ctx, scene.Visual, script.VisualStyle, i+1, assets.ScenePaths[i]); err != nil {
				record(err)
				return
			}
		}
	}()

	if g.music != nil && g.music.Enabled() {
		assets.MusicPath = filepath.Join(dir, "music.mp3")
		wg.Add(1)
		go func() {
			defer wg.Done()
			record(g.music.Fetch(ctx, script.Mood, assets.MusicPath))
		}()
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	log.Info("assets generated",
		logging.String("dir", dir),
		logging.Int("scenes", len(assets.ScenePaths)),
		logging.Bool("music", assets.MusicPath != ""))
	return assets, nil
}
