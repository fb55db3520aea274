package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the extraction core
type ErrorKind string

const (
	// KindConfiguration: unknown strategy, malformed override document,
	// missing endpoint configuration. Fatal at startup or selection time.
	KindConfiguration ErrorKind = "configuration_error"
	// KindValidation: the assembled record failed schema validation.
	KindValidation ErrorKind = "validation_error"
	// KindExtraction: one field or section failed; recovered locally, logged only.
	KindExtraction ErrorKind = "extraction_warning"
	// KindCollaborator: an NER, completion or similarity call failed.
	KindCollaborator ErrorKind = "collaborator_error"
)

// Sentinel errors for errors.Is checks
var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrValidation      = errors.New("record failed schema validation")
	ErrNoJSONObject    = errors.New("no JSON object in response")
)

// Error is a classified error carrying the failing operation
type Error struct {
	Kind    ErrorKind
	Op      string // e.g. "registry.get", "strategy.llm"
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error.
func NewError(kind ErrorKind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

// ConfigError is shorthand for a configuration error.
func ConfigError(op, message string, cause error) *Error {
	return NewError(KindConfiguration, op, message, cause)
}

// ValidationError wraps ErrValidation with the validator's message.
func ValidationError(op, message string) *Error {
	return NewError(KindValidation, op, message, ErrValidation)
}

// CollaboratorError is shorthand for a failed external collaborator call.
func CollaboratorError(op string, cause error) *Error {
	return NewError(KindCollaborator, op, "", cause)
}

// IsKind reports whether any error in err's chain is an *Error of kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
