package services

import (
	"context"

	"passageai/internal/extract"
	"passageai/internal/llm"
	"passageai/internal/prompts"
)

// Mindmap is the stripped model reply for the mind-map route.
type Mindmap struct {
	Body string
	HTML bool
}

type MindmapService interface {
	Mindmap(ctx context.Context, in PassageInput) (Mindmap, error)
}

type mindmapService struct {
	gen      llm.Generator
	template string
}

func NewMindmapService(gen llm.Generator, template string) MindmapService {
	return &mindmapService{gen: gen, template: template}
}

// Mindmap only strips code fences; the reply is never parsed as JSON.
func (s *mindmapService) Mindmap(ctx context.Context, in PassageInput) (Mindmap, error) {
	passage, err := in.prepare()
	if err != nil {
		return Mindmap{}, err
	}

	reply, err := s.gen.Generate(ctx, prompts.WithPassage(s.template, passage))
	if err != nil {
		return Mindmap{}, err
	}

	body := extract.StripFences(reply)
	return Mindmap{Body: body, HTML: extract.LooksLikeHTML(body)}, nil
}
