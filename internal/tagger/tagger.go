// Package tagger turns a listing photo into a model.TagSet using a vision
// model.
package tagger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/madison-marketplace/internal/apperror"
	"github.com/sakif/madison-marketplace/internal/model"
)

// Tagger describes an image.
type Tagger interface {
	Tag(ctx context.Context, image []byte, mediaType string) (*model.TagSet, error)
}

// Prompt is the instruction sent with every image.
const Prompt = `Analyze this image and provide tags in the following JSON format (respond with ONLY valid JSON, no other text):

{
  "main_category": "the primary category (e.g., furniture, clothing, food, electronics, etc.)",
  "specific_item": "the specific item name",
  "color": "primary color(s)",
  "material": "material composition",
  "description": "a casual 2-line description"
}`

// ErrNoJSON is returned by ParseTags when the text holds no JSON object.
var ErrNoJSON = errors.New("tagger: no JSON object in model output")

// ParseTags pulls the first complete {...} object out of free-form model
// output and decodes it. Braces inside JSON string literals do not count
// towards nesting.
func ParseTags(text string) (*model.TagSet, error) {
	obj, ok := firstObject(text)
	if !ok {
		return nil, ErrNoJSON
	}
	var tags model.TagSet
	if err := json.Unmarshal([]byte(obj), &tags); err != nil {
		return nil, fmt.Errorf("tagger: decoding tags: %w", err)
	}
	return &tags, nil
}

func firstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// failed wraps any tagging failure in the error the HTTP layer reports.
func failed(cause error) error {
	return apperror.Upstream("tagging", "Failed to generate tags", cause)
}
