package engine

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
	pkgerrors "github.com/alexisbeaulieu97/stagehand/pkg/errors"
)

// ErrContinuationReused is returned when a decorator invokes its continuation
// more than once.
var ErrContinuationReused = errors.New("continuation invoked more than once")

// Continuation invokes the remainder of a decorator chain.
type Continuation func(ctx context.Context) error

// Decorator wraps cross-cutting behaviour around the invocation of a subject.
// Execute must call next at most once; not calling it short-circuits the
// remainder of the chain, including the subject itself.
type Decorator[S any] interface {
	Execute(ctx context.Context, subject S, next Continuation) error
}

// DecoratorFunc adapts a function to the Decorator interface.
type DecoratorFunc[S any] func(ctx context.Context, subject S, next Continuation) error

// Execute implements Decorator.
func (f DecoratorFunc[S]) Execute(ctx context.Context, subject S, next Continuation) error {
	return f(ctx, subject, next)
}

// StepInvocation is the subject handed to step decorators.
type StepInvocation struct {
	Scenario   string
	Descriptor *scenario.StepDescriptor
	Result     *scenario.StepResult
}

// ScenarioInvocation is the subject handed to scenario decorators.
type ScenarioInvocation struct {
	Descriptor *scenario.ScenarioDescriptor
	Result     *scenario.ScenarioResult
}

// StepDecorator decorates step invocations.
type StepDecorator = Decorator[*StepInvocation]

// ScenarioDecorator decorates scenario invocations.
type ScenarioDecorator = Decorator[*ScenarioInvocation]

// Chain is an ordered list of decorators composed outer to inner in
// declaration order around a terminal action.
type Chain[S any] struct {
	decorators []Decorator[S]
}

// NewChain builds a chain from the given decorators; nil entries are skipped.
func NewChain[S any](decorators ...Decorator[S]) Chain[S] {
	kept := make([]Decorator[S], 0, len(decorators))
	for _, d := range decorators {
		if d != nil {
			kept = append(kept, d)
		}
	}
	return Chain[S]{decorators: kept}
}

// Len returns the number of decorators in the chain.
func (c Chain[S]) Len() int {
	return len(c.decorators)
}

// Execute runs terminal through every decorator. A non-nil outcome is wrapped
// in an ExecutionError whose phase tells whether the failure came from the
// subject or from a decorator.
func (c Chain[S]) Execute(ctx context.Context, subjectName string, subject S, terminal Continuation) error {
	marked := func(ctx context.Context) error {
		if err := callRecovered(func() error { return terminal(ctx) }); err != nil {
			return &subjectFailure{err: err}
		}
		return nil
	}

	err := c.invoke(ctx, subject, 0, marked)
	if err == nil {
		return nil
	}

	var failure *subjectFailure
	if errors.As(err, &failure) {
		if err == error(failure) {
			err = failure.err
		}
		return pkgerrors.NewExecutionError(subjectName, err)
	}
	return pkgerrors.NewDecoratorError(subjectName, err)
}

func (c Chain[S]) invoke(ctx context.Context, subject S, index int, terminal Continuation) error {
	if index >= len(c.decorators) {
		return terminal(ctx)
	}

	var used atomic.Bool
	next := func(ctx context.Context) error {
		if !used.CompareAndSwap(false, true) {
			return ErrContinuationReused
		}
		return c.invoke(ctx, subject, index+1, terminal)
	}
	return callRecovered(func() error {
		return c.decorators[index].Execute(ctx, subject, next)
	})
}

// subjectFailure marks errors raised by the terminal action so they can be
// told apart from decorator failures once the chain unwinds.
type subjectFailure struct {
	err error
}

func (f *subjectFailure) Error() string { return f.err.Error() }

func (f *subjectFailure) Unwrap() error { return f.err }
