package services

import (
	"passageai/internal/formats"
)

// PassageInput is the caller content shared by every route.
type PassageInput struct {
	Passage string
	Format  string
}

// prepare checks presence and returns the text to place in the prompt.
func (in PassageInput) prepare() (string, error) {
	if in.Passage == "" {
		return "", ErrMissingPassage
	}

	f, err := formats.Parse(in.Format)
	if err != nil {
		return "", &InputError{Code: "UNSUPPORTED_PASSAGE_FORMAT", Message: err.Error()}
	}

	text, err := formats.Normalize(in.Passage, f)
	if err != nil {
		return "", &InputError{Code: "INVALID_PASSAGE", Message: err.Error()}
	}
	if text == "" {
		return "", ErrMissingPassage
	}
	return text, nil
}
