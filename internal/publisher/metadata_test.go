package publisher

import (
	"strings"
	"testing"

	"reelsmith/internal/services/llm"
	"reelsmith/internal/worklist"
)

func TestBuildMetadataUsesScriptFields(t *testing.T) {
	item := worklist.Item{ID: "vid-1", Topic: "the deep ocean"}
	script := &llm.Script{
		Title:       "What Lives in the Deep Ocean",
		Description: "A tour of the creatures below 1000 meters.",
		Tags:        []string{"ocean", "nature", ""},
	}

	meta := BuildMetadata(item, script)
	if meta.Title != "What Lives in the Deep Ocean" {
		t.Fatalf("unexpected title: %q", meta.Title)
	}
	if meta.Description != "A tour of the creatures below 1000 meters." {
		t.Fatalf("unexpected description: %q", meta.Description)
	}
	if len(meta.Tags) != 2 {
		t.Fatalf("expected blank tags dropped, got %v", meta.Tags)
	}
}

func TestBuildMetadataFallsBackToTopic(t *testing.T) {
	item := worklist.Item{ID: "vid-1", Topic: "the deep ocean"}
	meta := BuildMetadata(item, &llm.Script{})

	if meta.Title != "The Deep Ocean" {
		t.Fatalf("expected title-cased topic, got %q", meta.Title)
	}
	if !strings.Contains(meta.Description, "the deep ocean") {
		t.Fatalf("expected topic in description, got %q", meta.Description)
	}
}

func TestBuildMetadataTruncatesLongTitles(t *testing.T) {
	longTitle := strings.Repeat("word ", 40)
	meta := BuildMetadata(worklist.Item{Topic: "t"}, &llm.Script{Title: longTitle})
	if len(meta.Title) > maxTitleLength {
		t.Fatalf("title too long: %d chars", len(meta.Title))
	}
	if strings.HasSuffix(meta.Title, " ") {
		t.Fatalf("title has trailing space: %q", meta.Title)
	}
}

func TestBuildMetadataCapsTags(t *testing.T) {
	var tags []string
	for range 15 {
		tags = append(tags, "tag")
	}
	meta := BuildMetadata(worklist.Item{Topic: "t"}, &llm.Script{Title: "T", Tags: tags})
	if len(meta.Tags) != maxTags {
		t.Fatalf("expected %d tags, got %d", maxTags, len(meta.Tags))
	}
}

func TestTruncateOnWordPrefersWordBoundary(t *testing.T) {
	got := truncateOnWord("alpha beta gamma delta", 18)
	if got != "alpha beta gamma" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
