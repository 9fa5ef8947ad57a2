package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"reelsmith/internal/pipeline"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/worklist"
)

func sampleScript() *llm.Script {
	return &llm.Script{
		Title:     "Test Title",
		Narration: "Line one. Line two.",
		Scenes: []llm.Scene{
			{Narration: "Line one.", Visual: "a quiet shoreline", DurationSec: 5},
			{Narration: "Line two.", Visual: "waves at sunset", DurationSec: 6},
		},
		Mood:        "calm",
		VisualStyle: "soft documentary photography",
	}
}

type stubScripts struct {
	script *llm.Script
	err    error
	calls  int
}

func (s *stubScripts) GenerateScript(ctx context.Context, topic, hints string) (*llm.Script, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.script, nil
}

type stubVoice struct {
	mu    sync.Mutex
	err   error
	paths []string
}

func (s *stubVoice) Synthesize(ctx context.Context, narration, outputPath string) error {
	s.mu.Lock()
	s.paths = append(s.paths, outputPath)
	s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(outputPath, []byte("audio"), 0o644)
}

type stubScenes struct {
	mu      sync.Mutex
	failAt  int
	err     error
	prompts []string
	styles  []string
}

func (s *stubScenes) Fetch(ctx context.Context, prompt, style string, sceneIndex int, outputPath string) error {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.styles = append(s.styles, style)
	s.mu.Unlock()
	if s.failAt > 0 && sceneIndex >= s.failAt {
		return s.err
	}
	return os.WriteFile(outputPath, []byte("image"), 0o644)
}

type stubMusic struct {
	enabled bool
	err     error
	moods   []string
}

func (s *stubMusic) Enabled() bool { return s.enabled }

func (s *stubMusic) Fetch(ctx context.Context, mood, outputPath string) error {
	s.moods = append(s.moods, mood)
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(outputPath, []byte("music"), 0o644)
}

func TestGenerateProducesAllAssets(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	scripts := &stubScripts{script: sampleScript()}
	voice := &stubVoice{}
	scenes := &stubScenes{}
	music := &stubMusic{enabled: true}

	gen := pipeline.NewGenerator(cfg, scripts, voice, scenes, music, nil)
	assets, err := gen.Generate(context.Background(), worklist.Item{ID: "vid-1", Topic: "the sea"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if assets.Script.Title != "Test Title" {
		t.Fatalf("unexpected script: %#v", assets.Script)
	}
	if len(assets.ScenePaths) != 2 {
		t.Fatalf("expected 2 scene paths, got %d", len(assets.ScenePaths))
	}
	for _, path := range append([]string{assets.VoiceoverPath, assets.MusicPath}, assets.ScenePaths...) {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected asset %q to exist: %v", path, err)
		}
	}
	if filepath.Dir(assets.VoiceoverPath) != assets.Dir {
		t.Fatalf("voiceover outside asset dir: %q", assets.VoiceoverPath)
	}
	if scenes.styles[0] != "soft documentary photography" {
		t.Fatalf("expected visual style threaded through, got %q", scenes.styles[0])
	}
	if len(music.moods) != 1 || music.moods[0] != "calm" {
		t.Fatalf("expected music fetched with script mood, got %v", music.moods)
	}
}

func TestGenerateSkipsMusicWhenDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	music := &stubMusic{enabled: false}
	gen := pipeline.NewGenerator(cfg, &stubScripts{script: sampleScript()}, &stubVoice{}, &stubScenes{}, music, nil)

	assets, err := gen.Generate(context.Background(), worklist.Item{ID: "vid-1", Topic: "the sea"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if assets.MusicPath != "" {
		t.Fatalf("expected no music path, got %q", assets.MusicPath)
	}
	if len(music.moods) != 0 {
		t.Fatal("music fetcher should not be called when disabled")
	}
}

func TestGenerateStopsWhenScriptFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	scriptErr := errors.New("model unavailable")
	voice := &stubVoice{}
	scenes := &stubScenes{}
	gen := pipeline.NewGenerator(cfg, &stubScripts{err: scriptErr}, voice, scenes, &stubMusic{}, nil)

	_, err := gen.Generate(context.Background(), worklist.Item{ID: "vid-1", Topic: "the sea"})
	if !errors.Is(err, scriptErr) {
		t.Fatalf("expected script error, got %v", err)
	}
	if len(voice.paths) != 0 || len(scenes.prompts) != 0 {
		t.Fatal("downstream services should not run when the script fails")
	}
}

func TestGenerateReportsFirstAssetError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sceneErr := errors.New("image backend down")
	scenes := &stubScenes{failAt: 2, err: sceneErr}
	gen := pipeline.NewGenerator(cfg, &stubScripts{script: sampleScript()}, &stubVoice{}, scenes, &stubMusic{}, nil)

	_, err := gen.Generate(context.Background(), worklist.Item{ID: "vid-1", Topic: "the sea"})
	if !errors.Is(err, sceneErr) {
		t.Fatalf("expected scene error, got %v", err)
	}
}

func TestGenerateRerunsOverwritePreviousAttempt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gen := pipeline.NewGenerator(cfg, &stubScripts{script: sampleScript()}, &stubVoice{}, &stubScenes{}, &stubMusic{}, nil)

	item := worklist.Item{ID: "vid-1", Topic: "the sea"}
	first, err := gen.Generate(context.Background(), item)
	if err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}
	second, err := gen.Generate(context.Background(), item)
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if first.Dir != second.Dir {
		t.Fatalf("expected stable asset dir, got %q and %q", first.Dir, second.Dir)
	}
}
