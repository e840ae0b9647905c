package contract

import "errors"

var (
	// ErrModelInvoke wraps completion service failures. Classification and
	// extraction absorb it; summary and recommendation return it.
	ErrModelInvoke     = errors.New("completion service call failed")
	ErrSchemaViolation = errors.New("completion does not match the extraction schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("invalid request")

	// ErrEmptyResult means a handler produced no result to return.
	ErrEmptyResult = errors.New("handler returned no result")
)
