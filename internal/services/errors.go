package services

import (
	"fmt"

	"passageai/internal/extract"
	"passageai/internal/schema"
)

// InputError is a client input problem detected before the model is
// called.
type InputError struct {
	Code    string
	Message string
}

func (e *InputError) Error() string { return e.Message }

var (
	ErrMissingPassage   = &InputError{Code: "MISSING_PASSAGE", Message: "Missing required field 'passage'"}
	ErrMissingQuestions = &InputError{Code: "MISSING_QUESTIONS", Message: "Missing required field 'questions'"}
)

// SchemaError reports model output that parsed as JSON but does not match
// the route's schema. Output is the invalid object as returned by the model.
type SchemaError struct {
	Result schema.Result
	Output extract.Object
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("model output failed schema validation with %d error(s)", len(e.Result.Errors))
}
