package scenario

import (
	"context"
	"fmt"
	"sync"
)

// StepContext is the surface a step body uses to interact with the engine.
// Every side effect is forwarded to the progress notifier immediately.
type StepContext interface {
	// Step returns the identity of the running step.
	Step() StepInfo
	// Context returns the execution context instance the step runs under.
	Context() any
	// Args returns the evaluated parameter values in declaration order.
	Args() []any
	// Parameter returns the evaluated value of the named parameter.
	Parameter(name string) (any, bool)
	// Comment records a free-form comment on the step.
	Comment(text string)
	// Attach records a file attachment on the step.
	Attach(attachment Attachment)
	// Go runs fn in the background. The step does not complete until fn
	// returns, and any failure it returns is recorded on the step.
	Go(fn func(ctx context.Context) error)
}

// StepFunc is the body of a step.
type StepFunc func(ctx context.Context, sc StepContext) (*ResultDescriptor, error)

// ParameterEvaluator produces a parameter value from the execution context.
type ParameterEvaluator func(ctx context.Context, execCtx any) (any, error)

// ParameterDescriptor declares a step parameter: either a constant Value or a
// deferred Evaluate function, run at most once.
type ParameterDescriptor struct {
	Name     string
	Value    any
	Evaluate ParameterEvaluator
}

// Const declares a constant parameter.
func Const(name string, value any) ParameterDescriptor {
	return ParameterDescriptor{Name: name, Value: value}
}

// Deferred declares a parameter evaluated just before the step first uses it.
func Deferred(name string, eval ParameterEvaluator) ParameterDescriptor {
	return ParameterDescriptor{Name: name, Evaluate: eval}
}

// StepDescriptor is the authored definition of a step.
type StepDescriptor struct {
	Name       string
	TypeHint   string
	Func       StepFunc
	Parameters []ParameterDescriptor
	// Invalid carries a construction failure. An invalid step fails when it
	// is executed instead of aborting the scenario definition.
	Invalid error
}

// NewStep declares a step with optional parameters.
func NewStep(name string, fn StepFunc, params ...ParameterDescriptor) *StepDescriptor {
	return &StepDescriptor{Name: name, Func: fn, Parameters: params}
}

// InvalidStep declares a step that could not be constructed.
func InvalidStep(name string, err error) *StepDescriptor {
	return &StepDescriptor{Name: name, Invalid: err}
}

// ExecutionContext is a resolved context instance and its disposal hook.
type ExecutionContext struct {
	Value   any
	Dispose func(ctx context.Context) error
}

// ContextProvider resolves the execution context a group of steps runs under.
type ContextProvider func(ctx context.Context) (ExecutionContext, error)

// ValueContext returns a provider of a fixed value with no disposal.
func ValueContext(value any) ContextProvider {
	return func(context.Context) (ExecutionContext, error) {
		return ExecutionContext{Value: value}, nil
	}
}

// AbortPolicy decides whether a step outcome at or above the abort threshold
// stops the remaining sibling steps of its group.
type AbortPolicy func(result *StepResult) bool

// AlwaysAbort stops remaining siblings whenever the threshold is reached.
func AlwaysAbort(*StepResult) bool { return true }

// NeverAbort runs every sibling and reports all outcomes together.
func NeverAbort(*StepResult) bool { return false }

// ResultDescriptor is returned by a step body. Carrying SubSteps tells the
// engine to expand them into a nested group and run it to completion.
type ResultDescriptor struct {
	SubSteps []*StepDescriptor
	// Context overrides the execution context of the nested group. When nil
	// the group inherits the parent's context.
	Context ContextProvider
	// AbortPolicy overrides the engine's policy for the nested group.
	AbortPolicy AbortPolicy
}

// Composite builds a descriptor expanding into the given sub-steps.
func Composite(steps ...*StepDescriptor) *ResultDescriptor {
	return &ResultDescriptor{SubSteps: steps}
}

// HasSubSteps reports whether the descriptor expands into a nested group.
func (d *ResultDescriptor) HasSubSteps() bool {
	return d != nil && len(d.SubSteps) > 0
}

// ScenarioDescriptor is the authored definition of a scenario.
type ScenarioDescriptor struct {
	Name       string
	Labels     []string
	Categories []string
	// Context provides the scenario execution context. When nil, ContextName
	// is resolved through the engine's context resolver, if any.
	Context     ContextProvider
	ContextName string
	Steps       []*StepDescriptor
	// StepsProvider builds the steps at run time; its failure is recorded
	// on the scenario before any step runs.
	StepsProvider func(ctx context.Context, execCtx any) ([]*StepDescriptor, error)
}

// Verifiable is implemented by parameter values that check themselves once
// the step body has run, such as expectations filled in by the body.
type Verifiable interface {
	Verify() ParameterVerification
}

// Expected is a verifiable parameter holding an expected value; the step
// body records the actual value with SetActual.
type Expected[T comparable] struct {
	mu       sync.Mutex
	want     T
	actual   T
	recorded bool
}

// Expect creates an Expected parameter value.
func Expect[T comparable](want T) *Expected[T] {
	return &Expected[T]{want: want}
}

// SetActual records the actual value observed by the step.
func (e *Expected[T]) SetActual(v T) {
	e.mu.Lock()
	e.actual = v
	e.recorded = true
	e.mu.Unlock()
}

// Verify implements Verifiable.
func (e *Expected[T]) Verify() ParameterVerification {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case !e.recorded:
		return ParameterVerification{Status: StatusNotRun, Message: "actual value not recorded"}
	case e.actual != e.want:
		return ParameterVerification{Status: StatusFailed, Message: fmt.Sprintf("expected: %v, but got: %v", e.want, e.actual)}
	}
	return ParameterVerification{Status: StatusPassed}
}

func (e *Expected[T]) String() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recorded && e.actual != e.want {
		return fmt.Sprintf("%v (actual %v)", e.want, e.actual)
	}
	return fmt.Sprintf("%v", e.want)
}
