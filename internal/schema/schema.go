// Package schema validates model output against declarative JSON Schema
// documents.
package schema

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// Error describes one structural violation.
type Error struct {
	Path    string `json:"path"`
	Keyword string `json:"keyword"`
	Message string `json:"message"`
}

// Result is the outcome of a validation. Errors is empty when Valid.
type Result struct {
	Valid  bool    `json:"valid"`
	Errors []Error `json:"errors,omitempty"`
}

// Validator checks documents against one compiled schema. It is safe for
// concurrent use.
type Validator struct {
	schema *gojsonschema.Schema
}

// Compile builds a Validator from a schema document.
func Compile(doc map[string]any) (*Validator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

// MustCompile is like Compile but panics on error. Use it for built-in
// schemas only.
func MustCompile(doc map[string]any) *Validator {
	v, err := Compile(doc)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks raw JSON. A non-nil error means raw could not be read as
// JSON at all.
func (v *Validator) Validate(raw []byte) (Result, error) {
	res, err := v.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return Result{}, fmt.Errorf("validate document: %w", err)
	}
	if res.Valid() {
		return Result{Valid: true}, nil
	}

	out := Result{Valid: false, Errors: make([]Error, 0, len(res.Errors()))}
	for _, re := range res.Errors() {
		out.Errors = append(out.Errors, Error{
			Path:    re.Field(),
			Keyword: keyword(re.Type()),
			Message: re.Description(),
		})
	}
	return out, nil
}

// keyword maps gojsonschema error types back to the schema keyword that
// failed.
func keyword(errType string) string {
	switch errType {
	case "invalid_type":
		return "type"
	case "additional_property_not_allowed":
		return "additionalProperties"
	case "number_any_of", "number_one_of", "number_all_of", "number_not":
		return errType[len("number_"):]
	case "array_min_items":
		return "minItems"
	case "array_max_items":
		return "maxItems"
	default:
		return errType
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
