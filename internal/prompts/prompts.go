// Package prompts holds the instruction templates sent to the model and
// assembles them with caller content.
package prompts

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"passageai/internal/config"
)

const DefaultAnalyze = `You are an expert reading-comprehension tutor.
Analyze the passage below and respond with a single JSON object and no other text.
The object must have exactly these keys:
- "vocabulary": array of {"word": string, "meaning": string} for difficult words
- "title": string, a suitable title for the passage
- "main_idea": {"direct": string, "indirect": string}
- "facts_opinions_inferences": array of {"type": "Fact" | "Opinion" | "Inference", "text": string}
- "transitions": array of {"src": string, "dest": string, "relation": "logical" | "contrastive" | "sequential" | "causal"}
- "keywords": array of strings
- "purpose": string, the author's purpose
Do not add any other keys.`

const DefaultMindmap = `You are a visual learning assistant.
Turn the passage below into a mind map rendered as a self-contained HTML fragment.
Use nested <ul>/<li> elements with the central idea at the root and inline styles only.
Return only the HTML fragment, without explanations.`

const DefaultSolve = `You are a careful reading-comprehension solver.
Answer each question using only the passage below. For every question, reason step by step
and cite the sentence that supports the answer.
Respond with a single JSON object of the form:
{"answers": [{"question": string, "reasoning": string, "evidence": string, "answer": string}]}
Return JSON only.`

// Set is the template for each route.
type Set struct {
	Analyze string
	Mindmap string
	Solve   string
}

// Defaults returns the built-in templates.
func Defaults() Set {
	return Set{Analyze: DefaultAnalyze, Mindmap: DefaultMindmap, Solve: DefaultSolve}
}

// FromConfig applies the configured overrides on top of Defaults.
func FromConfig(cfg config.PromptsConfig) Set {
	s := Defaults()
	if strings.TrimSpace(cfg.Analyze) != "" {
		s.Analyze = cfg.Analyze
	}
	if strings.TrimSpace(cfg.Mindmap) != "" {
		s.Mindmap = cfg.Mindmap
	}
	if strings.TrimSpace(cfg.Solve) != "" {
		s.Solve = cfg.Solve
	}
	return s
}

// WithPassage appends the passage to an instruction template.
func WithPassage(template, passage string) string {
	return template + "\n\nPassage:\n" + passage
}

// WithQuestions appends the passage and the rendered questions.
func WithQuestions(template, passage string, q Questions) string {
	return WithPassage(template, passage) + "\n\nQuestions:\n" + q.Render()
}

// Questions is either a single text value or an ordered list.
type Questions struct {
	Text   string
	List   []string
	IsList bool
}

var errQuestionsType = errors.New("questions must be a string or an array of strings")

func (q *Questions) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = Questions{}
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return errQuestionsType
		}
		*q = Questions{List: list, IsList: true}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return errQuestionsType
	}
	*q = Questions{Text: text}
	return nil
}

// Empty reports whether the caller effectively supplied no questions.
// An empty array still counts as supplied.
func (q Questions) Empty() bool {
	return !q.IsList && q.Text == ""
}

// Render numbers a non-empty list as "1. …" lines joined by newlines;
// a plain string is returned unmodified.
func (q Questions) Render() string {
	if !q.IsList {
		return q.Text
	}
	lines := make([]string, len(q.List))
	for i, s := range q.List {
		lines[i] = strconv.Itoa(i+1) + ". " + s
	}
	return strings.Join(lines, "\n")
}
