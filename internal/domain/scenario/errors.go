package scenario

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ErrorCode identifies well-known engine failure categories.
type ErrorCode string

const (
	ErrCodeContextInit  ErrorCode = "CONTEXT_INIT"
	ErrCodeStepInit     ErrorCode = "STEP_INIT"
	ErrCodeInvalidStep  ErrorCode = "INVALID_STEP"
	ErrCodeParameter    ErrorCode = "PARAMETER"
	ErrCodeNameFormat   ErrorCode = "NAME_FORMAT"
	ErrCodeTeardown     ErrorCode = "TEARDOWN"
	ErrCodeVerification ErrorCode = "VERIFICATION"
	ErrCodePanic        ErrorCode = "PANIC"
	ErrCodeGate         ErrorCode = "GATE"
	ErrCodeInterrupted  ErrorCode = "INTERRUPTED"
)

// DomainError represents a typed engine error enriched with contextual data.
type DomainError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As usage.
func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches other DomainError values carrying the same code.
func (e *DomainError) Is(target error) bool {
	var domainErr *DomainError
	if !errors.As(target, &domainErr) {
		return false
	}
	return e.Code == domainErr.Code
}

// NewError constructs a DomainError.
func NewError(code ErrorCode, message string, cause error, context map[string]interface{}) *DomainError {
	return &DomainError{Code: code, Message: message, Cause: cause, Context: context}
}

// HasCode reports whether err wraps a DomainError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var domainErr *DomainError
	for err != nil {
		if !errors.As(err, &domainErr) {
			return false
		}
		if domainErr.Code == code {
			return true
		}
		err = domainErr.Cause
	}
	return false
}

// BypassError is raised by a step that deliberately skips its work.
type BypassError struct {
	Reason string
}

func (e *BypassError) Error() string { return e.Reason }

// IgnoreError is raised by a step that hits a known, expected gap.
type IgnoreError struct {
	Reason string
}

func (e *IgnoreError) Error() string { return e.Reason }

// Bypass returns a soft failure marking the current step as bypassed.
func Bypass(reason string) error {
	return &BypassError{Reason: reason}
}

// Bypassf is Bypass with formatting.
func Bypassf(format string, args ...any) error {
	return &BypassError{Reason: fmt.Sprintf(format, args...)}
}

// Ignore returns a soft failure marking the current step as ignored.
func Ignore(reason string) error {
	return &IgnoreError{Reason: reason}
}

// Ignoref is Ignore with formatting.
func Ignoref(format string, args ...any) error {
	return &IgnoreError{Reason: fmt.Sprintf(format, args...)}
}

// FailureKind is the classification of a raised failure.
type FailureKind int

const (
	// FailureGeneric is any unexpected failure.
	FailureGeneric FailureKind = iota
	// FailureBypass is a deliberate skip.
	FailureBypass
	// FailureIgnore is a known gap.
	FailureIgnore
)

// Status maps the kind onto its execution status.
func (k FailureKind) Status() ExecutionStatus {
	switch k {
	case FailureBypass:
		return StatusBypassed
	case FailureIgnore:
		return StatusIgnored
	default:
		return StatusFailed
	}
}

func (k FailureKind) String() string {
	switch k {
	case FailureBypass:
		return "bypass"
	case FailureIgnore:
		return "ignore"
	default:
		return "generic"
	}
}

// Classify maps a single failure onto its kind. Aggregates are classified
// through StatusOf instead, which looks at every member.
func Classify(err error) FailureKind {
	var bypass *BypassError
	if errors.As(err, &bypass) {
		return FailureBypass
	}
	var ignore *IgnoreError
	if errors.As(err, &ignore) {
		return FailureIgnore
	}
	return FailureGeneric
}

// SoftReason returns the verbatim message of a Bypass or Ignore cause.
func SoftReason(err error) (string, bool) {
	var bypass *BypassError
	if errors.As(err, &bypass) {
		return bypass.Reason, true
	}
	var ignore *IgnoreError
	if errors.As(err, &ignore) {
		return ignore.Reason, true
	}
	return "", false
}

// StatusOf returns the status implied by err under ranking r. A nil error is
// Passed; an aggregate resolves to the most severe status of its members.
func StatusOf(r Ranking, err error) ExecutionStatus {
	if err == nil {
		return StatusPassed
	}
	members := Unpack(err)
	if len(members) > 1 {
		status := StatusNotRun
		for _, member := range members {
			status = r.Merge(status, StatusOf(r, member))
		}
		return status
	}
	return Classify(err).Status()
}

// Unpack flattens multierror aggregates and joined errors into their members,
// looking through single-error wrappers to find them. An error that wraps no
// aggregate yields itself.
func Unpack(err error) []error {
	if err == nil {
		return nil
	}
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		var members []error
		switch v := cur.(type) {
		case *multierror.Error:
			members = v.Errors
		case interface{ Unwrap() []error }:
			members = v.Unwrap()
		default:
			continue
		}
		out := make([]error, 0, len(members))
		for _, member := range members {
			out = append(out, Unpack(member)...)
		}
		return out
	}
	return []error{err}
}

// Aggregate collapses independently captured failures into the single
// failure object exposed on a result. Below Ignored severity no failure is
// exposed; a single failure at the final severity is returned unwrapped;
// several are preserved together in a multierror.
func Aggregate(r Ranking, status ExecutionStatus, errs ...error) error {
	if !r.AtLeast(status, StatusIgnored) {
		return nil
	}
	var selected []error
	for _, err := range errs {
		for _, member := range Unpack(err) {
			if StatusOf(r, member) == status {
				selected = append(selected, member)
			}
		}
	}
	switch len(selected) {
	case 0:
		return nil
	case 1:
		return selected[0]
	}
	return &multierror.Error{Errors: selected}
}
