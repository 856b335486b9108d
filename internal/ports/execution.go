package ports

import (
	"context"
	"time"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
)

// ContextResolver resolves named execution contexts for scenarios. The engine
// never inspects registration internals; it only resolves and disposes.
type ContextResolver interface {
	Resolve(ctx context.Context, name string) (scenario.ExecutionContext, error)
}

// NameProvider renders display names. Failures are wrapped by the engine as
// name formatting failures without hiding the underlying step outcome.
type NameProvider interface {
	// FormatStep renders a step name. params is nil while parameters are
	// still unresolved; implementations render placeholders in that case.
	FormatStep(step *scenario.StepDescriptor, params []scenario.ParameterResult) (string, error)
	FormatScenario(desc *scenario.ScenarioDescriptor) (string, error)
}

// Stopwatch measures the elapsed time of one execution.
type Stopwatch interface {
	Elapsed() time.Duration
}

// ExecutionTimer is the shared monotonic timer.
type ExecutionTimer interface {
	Start() Stopwatch
}

// DiagnosticFormatter renders generic failures for result details. It is
// only invoked for failures classified as Failed.
type DiagnosticFormatter interface {
	Format(err error) string
}
