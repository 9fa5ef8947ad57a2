package publisher

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelsmith/internal/services/llm"
	"reelsmith/internal/worklist"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 4800
	maxTags              = 10
)

// Metadata is the upload-facing view of a script.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
}

var titleCaser = cases.Title(language.English)

// BuildMetadata derives upload metadata from the script, falling back to
// the item topic when the script left fields blank.
func BuildMetadata(item worklist.Item, script *llm.Script) Metadata {
	title := strings.TrimSpace(script.Title)
	if title == "" {
		title = titleCaser.String(strings.TrimSpace(item.Topic))
	}
	if len(title) > maxTitleLength {
		title = truncateOnWord(title, maxTitleLength)
	}

	description := strings.TrimSpace(script.Description)
	if description == "" {
		description = fmt.Sprintf("A short video about %s.", strings.TrimSpace(item.Topic))
	}
	if len(description) > maxDescriptionLength {
		description = truncateOnWord(description, maxDescriptionLength)
	}

	var tags []string
	for _, tag := range script.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}

	return Metadata{
		Title:       title,
		Description: description,
		Tags:        tags,
	}
}

func truncateOnWord(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if idx := strings.LastIndexByte(cut, ' '); idx > limit/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " .,;:-")
}
