package llm

import (
	"fmt"
	"strings"
)

// Scene is one visual beat of the script.
type Scene struct {
	Narration   string  `json:"narration"`
	Visual      string  `json:"visual"`
	DurationSec float64 `json:"duration_seconds"`
}

// Script is the structured output of script generation. Every downstream
// stage consumes it: the narration feeds voiceover, the scenes feed image
// generation, and the title and description feed publishing.
type Script struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Narration   string   `json:"narration"`
	Scenes      []Scene  `json:"scenes"`
	Mood        string   `json:"mood"`
	VisualStyle string   `json:"visual_style"`
	Tags        []string `json:"tags"`
}

const defaultSceneDuration = 5.0

// Validate checks the script for the fields the pipeline cannot proceed
// without and fills defaulted scene durations.
func (s *Script) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("script missing title")
	}
	if strings.TrimSpace(s.Narration) == "" {
		return fmt.Errorf("script missing narration")
	}
	if len(s.Scenes) == 0 {
		return fmt.Errorf("script has no scenes")
	}
	for i := range s.Scenes {
		scene := &s.Scenes[i]
		if strings.TrimSpace(scene.Visual) == "" {
			return fmt.Errorf("scene %d missing visual description", i+1)
		}
		if scene.DurationSec <= 0 {
			scene.DurationSec = defaultSceneDuration
		}
	}
	return nil
}

// TotalDuration returns the summed scene durations in seconds.
func (s *Script) TotalDuration() float64 {
	var total float64
	for _, scene := range s.Scenes {
		total += scene.DurationSec
	}
	return total
}
