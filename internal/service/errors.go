package service

import "errors"

// Domain-state and external-service failures surfaced to the HTTP layer.
var (
	ErrNoCategories = errors.New("no categories created")
	ErrNoSuggestion = errors.New("no suggestion available")
)

// ValidationError tags a rejected input with the field it belongs to, so the
// HTTP layer can answer with a field-keyed message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
