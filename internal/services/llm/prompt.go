package llm

import (
	"fmt"
	"strings"
)

// scriptSystemPrompt instructs the model to return the script as a single
// JSON object matching the Script type.
const scriptSystemPrompt = `You are a scriptwriter for short narrated videos. Respond with a single JSON object and nothing else, using this shape:
{
  "title": "video title, at most 90 characters",
  "description": "one-paragraph video description",
  "narration": "the full narration text, spoken continuously",
  "scenes": [
    {
      "narration": "the narration lines covered by this scene",
      "visual": "a concrete visual description suitable for an image generator",
      "duration_seconds": 5
    }
  ],
  "mood": "one or two words describing the overall tone",
  "visual_style": "a short phrase describing the consistent visual style",
  "tags": ["up to ten short topic tags"]
}
Write 4 to 8 scenes. Keep the narration natural when read aloud. Do not include markdown, code fences, or commentary.`

func buildUserPrompt(topic, hints string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the script for a video about: %s\n", strings.TrimSpace(topic))
	if trimmed := strings.TrimSpace(hints); trimmed != "" {
		fmt.Fprintf(&b, "Creative direction from the requester: %s\n", trimmed)
	}
	return b.String()
}
