package suite

import (
	"context"
	"slices"

	"github.com/alexisbeaulieu97/stagehand/internal/config"
	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
	"github.com/alexisbeaulieu97/stagehand/internal/engine"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/clock"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/decorators"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/diagnostics"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/shell"
	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// RunUseCase coordinates loading, building and running suites.
type RunUseCase struct {
	logger      ports.Logger
	commands    ports.CommandRunner
	notifier    ports.ProgressNotifier
	metrics     ports.MetricsCollector
	timer       ports.ExecutionTimer
	concurrency int
	labels      []string
}

// Option configures a RunUseCase.
type Option func(*RunUseCase)

// WithLogger injects a logger.
func WithLogger(logger ports.Logger) Option {
	return func(u *RunUseCase) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithCommandRunner overrides how step commands are executed.
func WithCommandRunner(runner ports.CommandRunner) Option {
	return func(u *RunUseCase) {
		if runner != nil {
			u.commands = runner
		}
	}
}

// WithNotifier injects the notifier receiving lifecycle events.
func WithNotifier(notifier ports.ProgressNotifier) Option {
	return func(u *RunUseCase) {
		u.notifier = notifier
	}
}

// WithMetrics enables the metrics decorators.
func WithMetrics(collector ports.MetricsCollector) Option {
	return func(u *RunUseCase) {
		u.metrics = collector
	}
}

// WithConcurrency overrides the suite's max_concurrency setting when positive.
func WithConcurrency(limit int) Option {
	return func(u *RunUseCase) {
		u.concurrency = limit
	}
}

// WithLabels only runs scenarios carrying at least one of labels.
func WithLabels(labels ...string) Option {
	return func(u *RunUseCase) {
		u.labels = append([]string(nil), labels...)
	}
}

// NewRunUseCase constructs a RunUseCase with dependencies injected.
func NewRunUseCase(opts ...Option) *RunUseCase {
	u := &RunUseCase{
		logger:   logging.NewNoOpLogger(),
		commands: shell.NewRunner(),
		timer:    clock.New(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Load parses and validates the suite at path.
func (u *RunUseCase) Load(ctx context.Context, path string) (*config.Suite, error) {
	u.logger.Debug(ctx, "loading suite", "path", path)
	suite, err := config.ParseSuite(path)
	if err != nil {
		u.logger.Error(ctx, "failed to load suite", "path", path, "error", err)
		return nil, err
	}
	u.logger.Info(ctx, "suite loaded", "path", path, "suite", suite.Name, "scenarios", len(suite.Scenarios))
	return suite, nil
}

// Run loads the suite at path and runs it.
func (u *RunUseCase) Run(ctx context.Context, path string) (*config.Suite, *Report, error) {
	suite, err := u.Load(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	report, err := u.Execute(ctx, suite)
	return suite, report, err
}

// Execute runs an already validated suite.
func (u *RunUseCase) Execute(ctx context.Context, suite *config.Suite) (*Report, error) {
	if ports.GetCorrelationID(ctx) == "" {
		ctx = ports.WithCorrelationID(ctx, ports.GenerateCorrelationID())
	}

	settings := suite.Settings
	ranking, err := settings.EffectiveRanking()
	if err != nil {
		return nil, err
	}
	threshold, err := settings.EffectiveAbortThreshold()
	if err != nil {
		return nil, err
	}

	builder := NewBuilder(u.commands, settings)
	descs := u.filter(builder.Build(suite))
	runner := engine.NewRunner(append(u.runnerOptions(settings, ranking, threshold), engine.WithContextResolver(builder.Contexts()))...)

	u.logger.Info(ctx, "running suite",
		"suite", suite.Name,
		"scenarios", len(descs),
		"max_concurrency", runner.Gate().Limit(),
		"ranking", ranking.Name(),
	)

	stopwatch := u.timer.Start()
	results := runner.RunAll(ctx, descs)
	report := newReport(suite.Name, ranking, results, stopwatch.Elapsed())

	u.logger.Info(ctx, "suite finished",
		"suite", suite.Name,
		"status", report.Status.String(),
		"duration_ms", report.Duration.Milliseconds(),
		"peak_concurrency", runner.Gate().Peak(),
	)
	return report, nil
}

func (u *RunUseCase) runnerOptions(settings config.Settings, ranking scenario.Ranking, threshold scenario.ExecutionStatus) []engine.RunnerOption {
	concurrency := settings.MaxConcurrency
	if u.concurrency > 0 {
		concurrency = u.concurrency
	}

	var formatterOpts []diagnostics.Option
	if settings.StackDepth > 0 {
		formatterOpts = append(formatterOpts, diagnostics.WithMaxFrames(settings.StackDepth))
	}

	stepDecorators := []engine.StepDecorator{decorators.StepLogging(u.logger)}
	scenarioDecorators := []engine.ScenarioDecorator{decorators.ScenarioLogging(u.logger)}
	if u.metrics != nil {
		stepDecorators = append(stepDecorators, decorators.StepMetrics(u.metrics))
		scenarioDecorators = append(scenarioDecorators, decorators.ScenarioMetrics(u.metrics))
	}
	if timeout := settings.StepTimeout.Std(); timeout > 0 {
		stepDecorators = append(stepDecorators, decorators.StepTimeout(timeout))
	}

	return []engine.RunnerOption{
		engine.WithLogger(u.logger),
		engine.WithNotifier(u.notifier),
		engine.WithTimer(u.timer),
		engine.WithMaxConcurrency(concurrency),
		engine.WithRanking(ranking),
		engine.WithAbortThreshold(threshold),
		engine.WithDiagnosticFormatter(diagnostics.NewFormatter(formatterOpts...)),
		engine.WithStepDecorators(stepDecorators...),
		engine.WithScenarioDecorators(scenarioDecorators...),
	}
}

func (u *RunUseCase) filter(descs []*scenario.ScenarioDescriptor) []*scenario.ScenarioDescriptor {
	if len(u.labels) == 0 {
		return descs
	}
	kept := descs[:0:0]
	for _, desc := range descs {
		for _, label := range desc.Labels {
			if slices.Contains(u.labels, label) {
				kept = append(kept, desc)
				break
			}
		}
	}
	return kept
}
