// Package extract recovers structured payloads from free-text model replies.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrNoJSON is returned when a reply contains no '{' or no '}'.
	ErrNoJSON = errors.New("no JSON object found in model output")

	// ErrMalformedJSON wraps a parse failure of the located span.
	ErrMalformedJSON = errors.New("malformed JSON in model output")
)

var fenceReplacer = strings.NewReplacer("```json", "", "```html", "", "```", "")

// StripFences removes every markdown code-fence marker and trims the result.
func StripFences(text string) string {
	return strings.TrimSpace(fenceReplacer.Replace(text))
}

// Span is the slice of a reply between the first '{' and the last '}',
// inclusive.
type Span struct {
	Start int
	End   int
	Text  string
}

// FirstJSONObject locates the first '{' and the last '}' in text.
//
// This is not a balanced-brace scan. For
//
//	prefix {"a":1} middle {"b":2} suffix
//
// the span is `{"a":1} middle {"b":2}`. Callers depend on that exact
// behavior, so keep it.
func FirstJSONObject(text string) (Span, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 {
		return Span{}, ErrNoJSON
	}

	// A '}' before the first '{' yields an empty span; parsing it fails.
	if end < start {
		return Span{Start: start, End: end}, nil
	}
	return Span{Start: start, End: end, Text: text[start : end+1]}, nil
}

// Object is a parsed JSON object together with the bytes it came from.
type Object struct {
	Raw   json.RawMessage
	Value map[string]any
}

// ParseObject strips fences, locates the JSON span and decodes it.
func ParseObject(reply string) (Object, error) {
	span, err := FirstJSONObject(StripFences(reply))
	if err != nil {
		return Object{}, err
	}

	var value map[string]any
	if err := json.Unmarshal([]byte(span.Text), &value); err != nil {
		return Object{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return Object{Raw: json.RawMessage(span.Text), Value: value}, nil
}

// LooksLikeHTML reports whether text contains at least one HTML element.
func LooksLikeHTML(text string) bool {
	if !strings.Contains(text, "<") {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return false
	}
	// The parser always synthesizes html/head/body; look below them.
	return doc.Find("body *, head > *").Length() > 0
}
