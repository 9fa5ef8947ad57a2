package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelsmith/internal/config"
	"reelsmith/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.Model = "test-model"
	return New(&cfg, WithBaseURL(server.URL), WithHTTPClient(server.Client()))
}

func completionBody(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	if err != nil {
		t.Fatalf("marshal completion: %v", err)
	}
	return body
}

const validScriptJSON = `{
  "title": "Why Rivers Bend",
  "description": "A short look at meandering rivers.",
  "narration": "Rivers rarely run straight. Over time the current carves wide curves.",
  "scenes": [
    {"narration": "Rivers rarely run straight.", "visual": "aerial shot of a winding river in a green valley", "duration_seconds": 5},
    {"narration": "Over time the current carves wide curves.", "visual": "time lapse of a river bend eroding its outer bank", "duration_seconds": 6}
  ],
  "mood": "calm",
  "visual_style": "aerial documentary footage",
  "tags": ["rivers", "geography"]
}`

func TestGenerateScriptParsesStructuredResponse(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("unexpected model: %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %#v", req.Messages)
		}
		w.Write(completionBody(t, validScriptJSON))
	})

	script, err := client.GenerateScript(context.Background(), "why rivers bend", "keep it calm")
	if err != nil {
		t.Fatalf("GenerateScript failed: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if script.Title != "Why Rivers Bend" {
		t.Fatalf("unexpected title: %q", script.Title)
	}
	if len(script.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(script.Scenes))
	}
	if script.TotalDuration() != 11 {
		t.Fatalf("unexpected total duration: %v", script.TotalDuration())
	}
}

func TestGenerateScriptToleratesCodeFences(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionBody(t, "```json\n"+validScriptJSON+"\n```"))
	})

	script, err := client.GenerateScript(context.Background(), "why rivers bend", "")
	if err != nil {
		t.Fatalf("GenerateScript failed: %v", err)
	}
	if script.Title != "Why Rivers Bend" {
		t.Fatalf("unexpected title: %q", script.Title)
	}
}

func TestGenerateScriptDefaultsSceneDurations(t *testing.T) {
	payload := `{"title":"T","narration":"N","scenes":[{"narration":"N","visual":"a forest"}]}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionBody(t, payload))
	})

	script, err := client.GenerateScript(context.Background(), "forests", "")
	if err != nil {
		t.Fatalf("GenerateScript failed: %v", err)
	}
	if script.Scenes[0].DurationSec != defaultSceneDuration {
		t.Fatalf("expected defaulted duration, got %v", script.Scenes[0].DurationSec)
	}
}

func TestGenerateScriptRejectsIncompleteScript(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionBody(t, `{"title":"T","narration":"N","scenes":[]}`))
	})

	_, err := client.GenerateScript(context.Background(), "forests", "")
	if err == nil {
		t.Fatal("expected error for script without scenes")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestGenerateScriptClassifiesServerErrorsAsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
	})

	_, err := client.GenerateScript(context.Background(), "forests", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestGenerateScriptClassifiesAuthErrorsAsConfiguration(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	_, err := client.GenerateScript(context.Background(), "forests", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestGenerateScriptRequiresTopic(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := client.GenerateScript(context.Background(), "  ", ""); err == nil {
		t.Fatal("expected error for blank topic")
	}
}

func TestHealthCheckRoundTrip(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionBody(t, `{"ok":true}`))
	})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}

func TestDecodeModelJSONHandlesSurroundingProse(t *testing.T) {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := decodeModelJSON("Sure, here you go: {\"ok\": true} hope that helps", &out); err != nil {
		t.Fatalf("decodeModelJSON failed: %v", err)
	}
	if !out.OK {
		t.Fatal("expected ok true")
	}
}
