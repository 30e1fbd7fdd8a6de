package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")

	ErrInvalidQuery = errors.New("query is empty")
	ErrInvalidRole  = errors.New("role is not recognized")

	ErrRetrieval   = errors.New("data retrieval failed")
	ErrEmptyResult = errors.New("query returned no rows")
	ErrUnsafeQuery = errors.New("generated query is not allowed")
	ErrStrategy    = errors.New("strategy generation failed")
	ErrFollowup    = errors.New("follow-up generation failed")
)
