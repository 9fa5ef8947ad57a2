package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/journal"
	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/worklist"
)

type scriptedGenerator struct {
	mu       sync.Mutex
	failures map[string]int
	calls    map[string]int
	marker   error
}

func newScriptedGenerator(failures map[string]int) *scriptedGenerator {
	if failures == nil {
		failures = map[string]int{}
	}
	return &scriptedGenerator{
		failures: failures,
		calls:    map[string]int{},
		marker:   services.ErrTransient,
	}
}

func (g *scriptedGenerator) Generate(_ context.Context, item worklist.Item) (*pipeline.Assets, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[item.ID]++
	if g.failures[item.ID] > 0 {
		g.failures[item.ID]--
		return nil, services.Wrap(g.marker, worklist.StageScript, "generate_script", "model unavailable", nil)
	}
	return &pipeline.Assets{
		Script: &llm.Script{
			Title:     item.Topic,
			Narration: "narration",
			Scenes:    []llm.Scene{{Narration: "narration", Visual: "a scene", DurationSec: 5}},
		},
		VoiceoverPath: "/tmp/voiceover.mp3",
		ScenePaths:    []string{"/tmp/scene_000.jpg"},
	}, nil
}

func (g *scriptedGenerator) callCount(itemID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[itemID]
}

type stubComposer struct{}

func (stubComposer) Compose(_ context.Context, item worklist.Item, _ *pipeline.Assets) (string, error) {
	return "/tmp/" + item.ID + ".mp4", nil
}

type stubPublisher struct{}

func (stubPublisher) Publish(_ context.Context, item worklist.Item, _ *llm.Script, _ string) (string, error) {
	return "https://www.youtube.com/watch?v=" + item.ID, nil
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, store *journal.Store, gen ContentGenerator) *Orchestrator {
	t.Helper()
	orch := New(cfg, store, gen, stubComposer{}, stubPublisher{}, logging.NewNop())
	orch.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return orch
}

func TestRunOnceMixedOutcomes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.MaxRetries = 3
	store := testsupport.MustOpenJournal(t, cfg)
	testsupport.AddItem(t, store, "video_1", "Ocean Facts")
	testsupport.AddItem(t, store, "video_2", "Desert Life")
	testsupport.AddItem(t, store, "video_3", "Volcanoes")

	gen := newScriptedGenerator(map[string]int{
		"video_2": 2,
		"video_3": 99,
	})
	orch := newTestOrchestrator(t, cfg, store, gen)

	ctx := context.Background()
	summary, err := orch.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if summary.Fetched != 3 || summary.Completed != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	assertResult := func(id string, status worklist.Status) {
		t.Helper()
		result, err := store.Result(ctx, id)
		if err != nil {
			t.Fatalf("Result(%s) returned error: %v", id, err)
		}
		if result == nil {
			t.Fatalf("no result recorded for %s", id)
		}
		if result.FinalStatus != status {
			t.Fatalf("item %s final status = %s, want %s", id, result.FinalStatus, status)
		}
	}
	assertResult("video_1", worklist.StatusCompleted)
	assertResult("video_2", worklist.StatusCompleted)
	assertResult("video_3", worklist.StatusFailed)

	assertErrorCount := func(id string, want int) {
		t.Helper()
		records, err := store.Errors(ctx, id)
		if err != nil {
			t.Fatalf("Errors(%s) returned error: %v", id, err)
		}
		if len(records) != want {
			t.Fatalf("item %s has %d error records, want %d", id, len(records), want)
		}
	}
	assertErrorCount("video_1", 0)
	assertErrorCount("video_2", 2)
	assertErrorCount("video_3", cfg.Workflow.MaxRetries+1)

	if got := gen.callCount("video_3"); got != cfg.Workflow.MaxRetries+1 {
		t.Fatalf("video_3 attempted %d times, want %d", got, cfg.Workflow.MaxRetries+1)
	}

	item, err := store.GetByID(ctx, "video_2")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if item.AttemptCount != 3 {
		t.Fatalf("video_2 attempt count = %d, want 3", item.AttemptCount)
	}
	if record, _ := store.Errors(ctx, "video_3"); len(record) > 0 {
		if record[0].Stage != worklist.StageScript {
			t.Fatalf("error record stage = %q, want %q", record[0].Stage, worklist.StageScript)
		}
	}
}

func TestRunOnceSecondSweepIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	testsupport.AddItem(t, store, "video_1", "Ocean Facts")

	orch := newTestOrchestrator(t, cfg, store, newScriptedGenerator(nil))

	ctx := context.Background()
	if _, err := orch.RunOnce(ctx); err != nil {
		t.Fatalf("first sweep returned error: %v", err)
	}
	summary, err := orch.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second sweep returned error: %v", err)
	}
	if summary.Fetched != 0 || summary.Completed != 0 || summary.Failed != 0 {
		t.Fatalf("second sweep reprocessed items: %+v", summary)
	}
}

type failingSource struct {
	worklist.Backend
}

func (failingSource) FetchPending(context.Context) ([]worklist.Item, error) {
	return nil, errors.New("spreadsheet unreachable")
}

func TestRunOnceFetchFailureAbortsSweep(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)

	gen := newScriptedGenerator(nil)
	orch := New(cfg, failingSource{Backend: store}, gen, stubComposer{}, stubPublisher{}, logging.NewNop())

	_, err := orch.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected fetch failure to abort the sweep")
	}
	if !errors.Is(err, services.ErrInfrastructure) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
	if got := gen.callCount("video_1"); got != 0 {
		t.Fatalf("pipeline ran %d times despite fetch failure", got)
	}
}

func TestFailFastSkipsRetriesForPermanentErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.MaxRetries = 3
	cfg.Workflow.FailFastPermanent = true
	store := testsupport.MustOpenJournal(t, cfg)
	testsupport.AddItem(t, store, "video_1", "Ocean Facts")

	gen := newScriptedGenerator(map[string]int{"video_1": 99})
	gen.marker = services.ErrValidation
	orch := newTestOrchestrator(t, cfg, store, gen)

	ctx := context.Background()
	summary, err := orch.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	records, err := store.Errors(ctx, "video_1")
	if err != nil {
		t.Fatalf("Errors returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected a single error record, got %d", len(records))
	}
}

func TestRetryDelayBackoff(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.RetryDelay = 5
	cfg.Workflow.RetryBackoff = "exponential"
	store := testsupport.MustOpenJournal(t, cfg)
	orch := newTestOrchestrator(t, cfg, store, newScriptedGenerator(nil))

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{5, time.Minute},
	}
	for _, tc := range cases {
		if got := orch.retryDelay(tc.attempt); got != tc.want {
			t.Errorf("retryDelay(%d) = %s, want %s", tc.attempt, got, tc.want)
		}
	}

	cfg.Workflow.RetryBackoff = "constant"
	if got := orch.retryDelay(4); got != 5*time.Second {
		t.Errorf("constant retryDelay(4) = %s, want 5s", got)
	}
}

func TestRunContinuousStopsOnCancelMidWait(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	testsupport.AddItem(t, store, "video_1", "Ocean Facts")

	gen := newScriptedGenerator(nil)
	orch := New(cfg, store, gen, stubComposer{}, stubPublisher{}, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	waited := make(chan struct{})
	var once sync.Once
	orch.sleep = func(ctx context.Context, _ time.Duration) error {
		once.Do(func() { close(waited) })
		<-ctx.Done()
		return ctx.Err()
	}

	done := make(chan error, 1)
	go func() { done <- orch.RunContinuous(ctx) }()

	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatal("continuous loop never reached its inter-sweep wait")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("RunContinuous returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunContinuous did not stop after cancellation")
	}

	if got := gen.callCount("video_1"); got != 1 {
		t.Fatalf("item processed %d times, want exactly 1", got)
	}
}

// cancelingGenerator requests shutdown while its own pipeline call is in
// flight, then completes normally.
type cancelingGenerator struct {
	inner  *scriptedGenerator
	cancel context.CancelFunc
}

func (g *cancelingGenerator) Generate(ctx context.Context, item worklist.Item) (*pipeline.Assets, error) {
	g.cancel()
	return g.inner.Generate(ctx, item)
}

func TestShutdownMidPipelineRecordsTerminalOutcome(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	testsupport.AddItem(t, store, "video_1", "Ocean Facts")
	testsupport.AddItem(t, store, "video_2", "Desert Life")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	inner := newScriptedGenerator(nil)
	orch := newTestOrchestrator(t, cfg, store, &cancelingGenerator{inner: inner, cancel: cancel})

	summary, err := orch.RunOnce(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunOnce returned %v, want context.Canceled", err)
	}
	if summary.Completed != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	background := context.Background()
	done, waiting := "video_1", "video_2"
	if inner.callCount(done) == 0 {
		done, waiting = waiting, done
	}
	if got := inner.callCount(waiting); got != 0 {
		t.Fatalf("item %s processed %d times after shutdown", waiting, got)
	}

	result, err := store.Result(background, done)
	if err != nil {
		t.Fatalf("Result returned error: %v", err)
	}
	if result == nil {
		t.Fatalf("in-flight item %s has no recorded result", done)
	}
	if result.FinalStatus != worklist.StatusCompleted || result.OutputRef == "" {
		t.Fatalf("unexpected result %+v", result)
	}
	item, err := store.GetByID(background, done)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if item.Status != worklist.StatusCompleted {
		t.Fatalf("in-flight item left in status %s", item.Status)
	}

	waitingResult, err := store.Result(background, waiting)
	if err != nil {
		t.Fatalf("Result returned error: %v", err)
	}
	if waitingResult != nil {
		t.Fatalf("unprocessed item %s has a result: %+v", waiting, waitingResult)
	}
	waitingItem, err := store.GetByID(background, waiting)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if waitingItem.Status != worklist.StatusPending {
		t.Fatalf("unprocessed item left in status %s", waitingItem.Status)
	}
}

type failingSink struct {
	worklist.Backend
}

func (f failingSink) RecordResult(context.Context, worklist.Result) error {
	return errors.New("results sheet unreachable")
}

func TestRecordResultFailureAbortsSweep(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	testsupport.AddItem(t, store, "video_1", "Ocean Facts")

	orch := New(cfg, failingSink{Backend: store}, newScriptedGenerator(nil), stubComposer{}, stubPublisher{}, logging.NewNop())

	_, err := orch.RunOnce(context.Background())
	if !errors.Is(err, services.ErrInfrastructure) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}
