package services

import (
	"context"

	"passageai/internal/extract"
	"passageai/internal/llm"
	"passageai/internal/metrics"
	"passageai/internal/prompts"
	"passageai/internal/schema"
)

// AnalyzeService produces a schema-checked structured analysis of a
// passage.
type AnalyzeService interface {
	Analyze(ctx context.Context, in PassageInput) (extract.Object, error)
}

type analyzeService struct {
	gen       llm.Generator
	template  string
	validator *schema.Validator
}

// NewAnalyzeService validates results against schema.Analysis.
func NewAnalyzeService(gen llm.Generator, template string) AnalyzeService {
	return &analyzeService{
		gen:       gen,
		template:  template,
		validator: analysisValidator,
	}
}

var analysisValidator = schema.MustCompile(schema.Analysis)

func (s *analyzeService) Analyze(ctx context.Context, in PassageInput) (extract.Object, error) {
	passage, err := in.prepare()
	if err != nil {
		return extract.Object{}, err
	}

	reply, err := s.gen.Generate(ctx, prompts.WithPassage(s.template, passage))
	if err != nil {
		return extract.Object{}, err
	}

	obj, err := parseReply("analyze", reply)
	if err != nil {
		return extract.Object{}, err
	}

	res, err := s.validator.Validate(obj.Raw)
	if err != nil {
		return extract.Object{}, err
	}
	metrics.RecordValidation("analyze", res.Valid)
	if !res.Valid {
		return extract.Object{}, &SchemaError{Result: res, Output: obj}
	}
	return obj, nil
}
