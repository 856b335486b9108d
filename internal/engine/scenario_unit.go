package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// Run executes a scenario and returns its result. Run never returns a nil
// result; every failure, including failures to obtain a gate slot or build
// the scenario context, is recorded on the result.
func (r *Runner) Run(ctx context.Context, desc *scenario.ScenarioDescriptor) *scenario.ScenarioResult {
	if ctx == nil {
		ctx = context.Background()
	}
	if desc == nil {
		desc = &scenario.ScenarioDescriptor{}
	}

	result := &scenario.ScenarioResult{
		RunID:      uuid.NewString(),
		Name:       desc.Name,
		Labels:     append([]string(nil), desc.Labels...),
		Categories: append([]string(nil), desc.Categories...),
		Status:     scenario.StatusNotRun,
	}
	if ports.GetCorrelationID(ctx) == "" {
		ctx = ports.WithCorrelationID(ctx, result.RunID)
	}

	release, err := r.gate.Acquire(ctx)
	if err != nil {
		failure := scenario.NewError(scenario.ErrCodeGate, "scenario was not admitted", err, nil)
		result.Status = scenario.StatusFailed
		result.Failure = failure
		result.Details = r.describeFailures([]error{failure})
		r.logger.Warn(ctx, "scenario not admitted", "scenario", result.Name, "error", err)
		return result
	}
	defer release()

	unit := &scenarioUnit{runner: r, desc: desc, result: result}
	unit.run(ctx)
	return result
}

type scenarioUnit struct {
	runner   *Runner
	desc     *scenario.ScenarioDescriptor
	result   *scenario.ScenarioResult
	failures []error
}

func (u *scenarioUnit) run(ctx context.Context) {
	r := u.runner
	stopwatch := r.timer.Start()

	name, nameErr := r.formatScenarioName(u.desc)
	u.result.Name = name

	r.notify(ctx, ports.Event{
		Type:     ports.EventScenarioStarting,
		RunID:    u.result.RunID,
		Scenario: u.result.Name,
		Result:   u.result,
	})
	r.logger.Debug(ctx, "scenario starting", "scenario", u.result.Name, "run_id", u.result.RunID)

	defer func() {
		if p := recover(); p != nil {
			u.failures = append(u.failures, panicError(p))
		}
		u.complete()
		u.result.Duration = stopwatch.Elapsed()
		r.logger.Info(ctx, "scenario finished",
			"scenario", u.result.Name,
			"run_id", u.result.RunID,
			"status", u.result.Status.String(),
			"duration_ms", u.result.Duration.Milliseconds(),
		)
		r.notify(ctx, ports.Event{
			Type:     ports.EventScenarioFinished,
			RunID:    u.result.RunID,
			Scenario: u.result.Name,
			Result:   u.result,
		})
	}()

	if nameErr != nil {
		u.failures = append(u.failures, nameErr)
	}

	var group *stepGroup
	if u.desc.StepsProvider == nil {
		group = u.newGroup(u.desc.Steps)
	}

	execCtx, err := u.resolveContext(ctx)
	if err != nil {
		u.failures = append(u.failures, scenario.NewError(scenario.ErrCodeContextInit, "scenario context initialization failed", err, nil))
		return
	}
	defer func() {
		if err := dispose(ctx, execCtx); err != nil {
			u.failures = append(u.failures, err)
		}
	}()

	if group == nil {
		var steps []*scenario.StepDescriptor
		err := callRecovered(func() error {
			var err error
			steps, err = u.desc.StepsProvider(ctx, execCtx.Value)
			return err
		})
		if err != nil {
			u.failures = append(u.failures, scenario.NewError(scenario.ErrCodeStepInit, "scenario steps initialization failed", err, nil))
			return
		}
		group = u.newGroup(steps)
	}
	group.plan.execCtx = execCtx.Value

	invocation := &ScenarioInvocation{Descriptor: u.desc, Result: u.result}
	if err := r.scenarioChain.Execute(ctx, u.result.Name, invocation, group.run); err != nil {
		u.failures = append(u.failures, err)
	}
}

func (u *scenarioUnit) newGroup(steps []*scenario.StepDescriptor) *stepGroup {
	group := newStepGroup(u.runner, groupPlan{
		scenario: u.result.Name,
		runID:    u.result.RunID,
		steps:    steps,
	})
	u.result.Steps = group.results
	return group
}

func (u *scenarioUnit) resolveContext(ctx context.Context) (scenario.ExecutionContext, error) {
	r := u.runner
	switch {
	case u.desc.Context != nil:
		return resolveContext(ctx, u.desc.Context)
	case u.desc.ContextName != "" && r.resolver != nil:
		return resolveContext(ctx, func(ctx context.Context) (scenario.ExecutionContext, error) {
			return r.resolver.Resolve(ctx, u.desc.ContextName)
		})
	case u.desc.ContextName != "":
		return scenario.ExecutionContext{}, scenario.NewError(scenario.ErrCodeContextInit, "no context resolver configured", nil, map[string]interface{}{
			"context": u.desc.ContextName,
		})
	}
	return scenario.ExecutionContext{}, nil
}

// complete folds step outcomes and out-of-step failures into the result.
func (u *scenarioUnit) complete() {
	r := u.runner
	res := u.result

	status := scenario.StatusPassed
	for _, f := range u.failures {
		status = r.ranking.Merge(status, scenario.StatusOf(r.ranking, f))
	}
	all := append([]error(nil), u.failures...)
	for _, step := range res.Steps {
		status = r.ranking.Merge(status, step.Status)
		if step.Failure != nil {
			all = append(all, step.Failure)
		}
	}

	res.Status = status
	res.Details = scenario.ComposeDetails(r.describeFailures(u.failures), res.Steps)
	res.Failure = scenario.Aggregate(r.ranking, status, all...)
}
