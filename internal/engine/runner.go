package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/clock"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/diagnostics"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/naming"
	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// Runner executes scenarios. A Runner is safe for concurrent use; every
// scenario run through it shares its concurrency gate.
type Runner struct {
	logger    ports.Logger
	notifier  ports.ProgressNotifier
	names     ports.NameProvider
	timer     ports.ExecutionTimer
	formatter ports.DiagnosticFormatter
	resolver  ports.ContextResolver

	gate           *Gate
	ranking        scenario.Ranking
	abortThreshold scenario.ExecutionStatus
	abortPolicy    scenario.AbortPolicy

	stepChain     Chain[*StepInvocation]
	scenarioChain Chain[*ScenarioInvocation]

	interruptGrace time.Duration
}

const defaultInterruptGrace = time.Second

// RunnerOption configures a runner instance.
type RunnerOption func(*Runner)

// WithLogger injects a logger.
func WithLogger(logger ports.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithNotifier injects the progress notifier receiving lifecycle events.
func WithNotifier(notifier ports.ProgressNotifier) RunnerOption {
	return func(r *Runner) {
		r.notifier = notifier
	}
}

// WithNameProvider overrides how step and scenario names are rendered.
func WithNameProvider(names ports.NameProvider) RunnerOption {
	return func(r *Runner) {
		if names != nil {
			r.names = names
		}
	}
}

// WithTimer overrides the execution timer.
func WithTimer(timer ports.ExecutionTimer) RunnerOption {
	return func(r *Runner) {
		if timer != nil {
			r.timer = timer
		}
	}
}

// WithDiagnosticFormatter overrides how generic failures are rendered.
func WithDiagnosticFormatter(formatter ports.DiagnosticFormatter) RunnerOption {
	return func(r *Runner) {
		if formatter != nil {
			r.formatter = formatter
		}
	}
}

// WithContextResolver injects the resolver used for named scenario contexts.
func WithContextResolver(resolver ports.ContextResolver) RunnerOption {
	return func(r *Runner) {
		r.resolver = resolver
	}
}

// WithMaxConcurrency bounds how many scenarios run at once. Non-positive
// values use the host parallelism.
func WithMaxConcurrency(limit int) RunnerOption {
	return func(r *Runner) {
		r.gate = NewGate(limit)
	}
}

// WithGate shares an existing gate between runners.
func WithGate(gate *Gate) RunnerOption {
	return func(r *Runner) {
		if gate != nil {
			r.gate = gate
		}
	}
}

// WithRanking overrides the relative severity of Bypassed and Ignored.
func WithRanking(ranking scenario.Ranking) RunnerOption {
	return func(r *Runner) {
		r.ranking = ranking
	}
}

// WithAbortThreshold sets the minimal status that consults the abort policy.
func WithAbortThreshold(threshold scenario.ExecutionStatus) RunnerOption {
	return func(r *Runner) {
		r.abortThreshold = threshold
	}
}

// WithAbortPolicy overrides the default policy, which aborts remaining
// sibling steps once the threshold is reached.
func WithAbortPolicy(policy scenario.AbortPolicy) RunnerOption {
	return func(r *Runner) {
		if policy != nil {
			r.abortPolicy = policy
		}
	}
}

// WithStepDecorators appends decorators wrapped around every step body.
func WithStepDecorators(decorators ...StepDecorator) RunnerOption {
	return func(r *Runner) {
		r.stepChain = NewChain(append(r.stepChain.decorators, decorators...)...)
	}
}

// WithScenarioDecorators appends decorators wrapped around every scenario.
func WithScenarioDecorators(decorators ...ScenarioDecorator) RunnerOption {
	return func(r *Runner) {
		r.scenarioChain = NewChain(append(r.scenarioChain.decorators, decorators...)...)
	}
}

// WithInterruptGrace bounds how long an interrupted step waits for its posted
// work before detaching from it.
func WithInterruptGrace(grace time.Duration) RunnerOption {
	return func(r *Runner) {
		if grace >= 0 {
			r.interruptGrace = grace
		}
	}
}

// NewRunner constructs a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger:         logging.NewNoOpLogger(),
		names:          naming.NewProvider(),
		timer:          clock.New(),
		formatter:      diagnostics.NewFormatter(),
		ranking:        scenario.DefaultRanking,
		abortThreshold: scenario.StatusFailed,
		abortPolicy:    scenario.AlwaysAbort,
		interruptGrace: defaultInterruptGrace,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.gate == nil {
		r.gate = NewGate(0)
	}
	return r
}

// Gate returns the runner's concurrency gate.
func (r *Runner) Gate() *Gate {
	return r.gate
}

// RunAll runs every scenario concurrently, bounded by the gate, and returns
// the results in submission order.
func (r *Runner) RunAll(ctx context.Context, descs []*scenario.ScenarioDescriptor) []*scenario.ScenarioResult {
	results := make([]*scenario.ScenarioResult, len(descs))
	var g errgroup.Group
	for i, desc := range descs {
		i, desc := i, desc
		g.Go(func() error {
			results[i] = r.Run(ctx, desc)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// notify delivers an event to the notifier. Notifier failures and panics are
// logged and never reach the run.
func (r *Runner) notify(ctx context.Context, event ports.Event) {
	if r.notifier == nil {
		return
	}
	err := callRecovered(func() error {
		return r.notifier.Notify(ctx, event)
	})
	if err != nil {
		r.logger.Warn(ctx, "progress notification failed", "event_type", string(event.Type), "error", err)
	}
}

func (r *Runner) formatStepName(desc *scenario.StepDescriptor, params []scenario.ParameterResult) (string, error) {
	var name string
	err := callRecovered(func() error {
		var err error
		name, err = r.names.FormatStep(desc, params)
		return err
	})
	if err != nil {
		return desc.Name, scenario.NewError(scenario.ErrCodeNameFormat, "name formatting failed", err, map[string]interface{}{
			"step": desc.Name,
		})
	}
	return name, nil
}

func (r *Runner) formatScenarioName(desc *scenario.ScenarioDescriptor) (string, error) {
	var name string
	err := callRecovered(func() error {
		var err error
		name, err = r.names.FormatScenario(desc)
		return err
	})
	if err != nil {
		return desc.Name, scenario.NewError(scenario.ErrCodeNameFormat, "name formatting failed", err, map[string]interface{}{
			"scenario": desc.Name,
		})
	}
	return name, nil
}

// describeFailures renders failure details: soft causes verbatim, anything
// else through the diagnostic formatter.
func (r *Runner) describeFailures(failures []error) string {
	lines := make([]string, 0, len(failures))
	for _, failure := range failures {
		for _, member := range scenario.Unpack(failure) {
			if reason, ok := scenario.SoftReason(member); ok {
				lines = append(lines, reason)
				continue
			}
			lines = append(lines, r.formatDiagnostic(member))
		}
	}
	return strings.Join(lines, "\n")
}

func (r *Runner) formatDiagnostic(err error) string {
	var text string
	if fmtErr := callRecovered(func() error {
		text = r.formatter.Format(err)
		return nil
	}); fmtErr != nil {
		return fmt.Sprintf("%v (diagnostic formatting failed: %v)", err, fmtErr)
	}
	return text
}
