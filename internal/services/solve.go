package services

import (
	"context"
	"errors"

	"passageai/internal/extract"
	"passageai/internal/llm"
	"passageai/internal/metrics"
	"passageai/internal/prompts"
)

// SolveInput adds the questions to answer about the passage.
type SolveInput struct {
	PassageInput
	Questions prompts.Questions
}

// SolveService answers questions about a passage. Its output is returned
// without schema validation.
type SolveService interface {
	Solve(ctx context.Context, in SolveInput) (extract.Object, error)
}

type solveService struct {
	gen      llm.Generator
	template string
}

func NewSolveService(gen llm.Generator, template string) SolveService {
	return &solveService{gen: gen, template: template}
}

func (s *solveService) Solve(ctx context.Context, in SolveInput) (extract.Object, error) {
	passage, err := in.prepare()
	if err != nil {
		return extract.Object{}, err
	}
	if in.Questions.Empty() {
		return extract.Object{}, ErrMissingQuestions
	}

	reply, err := s.gen.Generate(ctx, prompts.WithQuestions(s.template, passage, in.Questions))
	if err != nil {
		return extract.Object{}, err
	}
	return parseReply("solve", reply)
}

// parseReply extracts the JSON object from a reply and records the outcome.
func parseReply(route, reply string) (extract.Object, error) {
	obj, err := extract.ParseObject(reply)
	switch {
	case err == nil:
		metrics.RecordExtraction(route, "ok")
	case errors.Is(err, extract.ErrNoJSON):
		metrics.RecordExtraction(route, "no_json")
	default:
		metrics.RecordExtraction(route, "malformed")
	}
	return obj, err
}
