package entity

import "errors"

// Domain errors
var (
	// LLM errors
	ErrContentFiltered = errors.New("completion rejected by provider content filter")
	ErrNoChoices       = errors.New("completion response contains no choices")

	// Retrieval errors
	ErrEmptyIndex = errors.New("lecture index is empty, no course language available")

	// Selection errors
	ErrNoCandidates = errors.New("no candidate responses to select from")

	// Validation errors
	ErrMissingField = errors.New("required field is missing")
)
