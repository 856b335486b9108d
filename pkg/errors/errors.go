package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures suite document validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Phase tells where inside a decorated invocation a failure was raised.
type Phase string

const (
	// PhaseSubject marks failures raised by the decorated subject itself.
	PhaseSubject Phase = "subject"
	// PhaseDecorator marks failures raised while composing the decorator chain.
	PhaseDecorator Phase = "decorator"
)

// ExecutionError wraps the outcome of a decorated step or scenario invocation.
type ExecutionError struct {
	Subject string
	Phase   Phase
	Err     error
}

// NewExecutionError constructs an ExecutionError raised inside the subject.
func NewExecutionError(subject string, err error) error {
	return &ExecutionError{Subject: subject, Phase: PhaseSubject, Err: err}
}

// NewDecoratorError constructs an ExecutionError raised by a decorator.
func NewDecoratorError(subject string, err error) error {
	return &ExecutionError{Subject: subject, Phase: PhaseDecorator, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	where := "execution error"
	if e.Phase == PhaseDecorator {
		where = "decorator error"
	}
	if e.Subject != "" {
		return fmt.Sprintf("%s on %s: %v", where, e.Subject, e.Err)
	}
	return fmt.Sprintf("%s: %v", where, e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InSubject reports whether the failure originated in the decorated subject.
func (e *ExecutionError) InSubject() bool {
	return e != nil && e.Phase == PhaseSubject
}
