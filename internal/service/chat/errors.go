package chat

import (
	"errors"
	"fmt"
)

var (
	ErrPersonaRequired = errors.New("persona id is required")
	ErrPersonaNotFound = errors.New("persona not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("a message is already being answered for this session")
	// ErrEmptyMessage rejects blank submissions before any generator call.
	ErrEmptyMessage = errors.New("message must not be empty")
)

// GeneratorError reports a failed call to the text-generation backend. The
// session is left exactly as it was before the submission.
type GeneratorError struct {
	Err error
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("generator failed: %v", e.Err)
}

func (e *GeneratorError) Unwrap() error {
	return e.Err
}
