// Package diagnostics renders generic failures for step and scenario details.
package diagnostics

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

const defaultMaxFrames = 8

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Formatter renders a failure with its nested cause chain and a truncated
// stack trace when one was captured with github.com/pkg/errors.
type Formatter struct {
	maxFrames int
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithMaxFrames bounds how many stack frames are rendered.
func WithMaxFrames(n int) Option {
	return func(f *Formatter) {
		if n > 0 {
			f.maxFrames = n
		}
	}
}

// NewFormatter creates a Formatter.
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{maxFrames: defaultMaxFrames}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements ports.DiagnosticFormatter.
func (f *Formatter) Format(err error) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", typeName(err), err.Error())

	previous := err.Error()
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		message := cause.Error()
		if message == previous {
			continue
		}
		fmt.Fprintf(&b, "\n\t--> %s: %s", typeName(cause), message)
		previous = message
	}

	if trace := deepestStack(err); len(trace) > 0 {
		shown := trace
		if len(shown) > f.maxFrames {
			shown = shown[:f.maxFrames]
		}
		for _, frame := range shown {
			fmt.Fprintf(&b, "\n\tat %n (%s:%d)", frame, frame, frame)
		}
		if hidden := len(trace) - len(shown); hidden > 0 {
			fmt.Fprintf(&b, "\n\t... %d more", hidden)
		}
	}
	return b.String()
}

// deepestStack returns the stack captured closest to the root cause.
func deepestStack(err error) pkgerrors.StackTrace {
	var trace pkgerrors.StackTrace
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if tracer, ok := cur.(stackTracer); ok {
			trace = tracer.StackTrace()
		}
	}
	return trace
}

func typeName(err error) string {
	name := fmt.Sprintf("%T", err)
	return strings.TrimPrefix(name, "*")
}

var _ ports.DiagnosticFormatter = (*Formatter)(nil)
