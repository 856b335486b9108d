package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

type stepState int

const (
	stateCreated stepState = iota
	stateParametersEvaluating
	stateRunning
	stateSubStepsExpanding
	stateSubStepsRunning
	stateCompleted
)

var stepStateNames = [...]string{
	"created",
	"parameters_evaluating",
	"running",
	"sub_steps_expanding",
	"sub_steps_running",
	"completed",
}

func (s stepState) String() string {
	if int(s) < len(stepStateNames) {
		return stepStateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	errNoBody        = errors.New("step has no body")
	errStepCompleted = errors.New("step completed before its sub-steps could be attached")
)

// stepUnit runs one step: parameter evaluation, the decorated body, sub-step
// expansion, and the drain of work posted by the body.
type stepUnit struct {
	runner   *Runner
	desc     *scenario.StepDescriptor
	result   *scenario.StepResult
	params   []*parameter
	execCtx  any
	scenario string
	runID    string

	evaluated bool

	// mu guards state and result.SubSteps, which work posted by the body may
	// still touch after an interrupted drain.
	mu    sync.Mutex
	state stepState
}

func (u *stepUnit) run(ctx context.Context) {
	r := u.runner
	stopwatch := r.timer.Start()
	var failures []error
	started := false

	defer func() {
		if p := recover(); p != nil {
			failures = append(failures, panicError(p))
		}
		u.complete(failures)
		u.result.Duration = stopwatch.Elapsed()
		if started {
			r.logger.Debug(ctx, "step finished",
				"scenario", u.scenario,
				"step_number", u.result.Info.Numeral(),
				"step", u.result.Info.Name,
				"status", u.result.Status.String(),
				"duration_ms", u.result.Duration.Milliseconds(),
			)
			r.notify(ctx, u.event(ports.EventStepFinished))
		}
	}()

	if u.desc.Invalid != nil {
		failures = append(failures, scenario.NewError(scenario.ErrCodeInvalidStep, "step could not be constructed", u.desc.Invalid, nil))
		return
	}
	if u.desc.Func == nil {
		failures = append(failures, scenario.NewError(scenario.ErrCodeInvalidStep, "step could not be constructed", errNoBody, nil))
		return
	}

	r.logger.Debug(ctx, "step starting",
		"scenario", u.scenario,
		"step_number", u.result.Info.Numeral(),
		"step", u.result.Info.Name,
	)
	r.notify(ctx, u.event(ports.EventStepStarting))
	started = true

	placeholder := u.result.Info.Name
	u.setState(stateParametersEvaluating)
	if err := u.evaluateParameters(ctx); err != nil {
		failures = append(failures, err)
		return
	}
	if err := u.rename(); err != nil {
		failures = append(failures, err)
	}
	if u.result.Info.Name != placeholder {
		r.notify(ctx, u.event(ports.EventStepRenamed))
	}

	u.setState(stateRunning)

	barrierCtx, barrier := InstallBarrier(ctx)
	invocation := &StepInvocation{Scenario: u.scenario, Descriptor: u.desc, Result: u.result}
	if err := r.stepChain.Execute(barrierCtx, u.result.Info.Name, invocation, u.invoke); err != nil {
		failures = append(failures, err)
	}
	if err := barrier.Drain(ctx); err != nil {
		failures = append(failures, err)
		if scenario.HasCode(err, scenario.ErrCodeInterrupted) {
			detached, late := u.awaitStragglers(ctx, barrier)
			if detached {
				return
			}
			if late != nil {
				failures = append(failures, late)
			}
		}
	}

	if err := u.verifyParameters(); err != nil {
		failures = append(failures, err)
	}
	if err := u.rename(); err != nil {
		failures = append(failures, err)
	}
}

// invoke is the terminal action of the step decorator chain.
func (u *stepUnit) invoke(ctx context.Context) error {
	exec := &execution{ctx: ctx, unit: u}
	desc, err := u.desc.Func(ctx, exec)
	if err != nil {
		return err
	}
	if !desc.HasSubSteps() {
		return nil
	}

	u.mu.Lock()
	if u.state == stateCompleted {
		u.mu.Unlock()
		return errStepCompleted
	}
	u.state = stateSubStepsExpanding
	group := newStepGroup(u.runner, groupPlan{
		scenario: u.scenario,
		runID:    u.runID,
		prefix:   u.result.Info.Numeral() + ".",
		path:     u.result.Info.Path,
		steps:    desc.SubSteps,
		provider: desc.Context,
		execCtx:  u.execCtx,
		abort:    desc.AbortPolicy,
	})
	u.result.SubSteps = group.results
	u.state = stateSubStepsRunning
	u.mu.Unlock()

	return group.run(ctx)
}

func (u *stepUnit) setState(state stepState) {
	u.mu.Lock()
	u.state = state
	u.mu.Unlock()
}

// active reports whether the step still accepts side effects from its body.
func (u *stepUnit) active() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state != stateCompleted
}

// awaitStragglers gives work still posted after an interrupted drain a bounded
// grace period and returns its failure. Work that outlives it is detached: its
// sub-step results are dropped and parameters are left unverified, so nothing
// the body still does reaches the result after the step finishes.
func (u *stepUnit) awaitStragglers(ctx context.Context, barrier *Barrier) (bool, error) {
	timer := time.NewTimer(u.runner.interruptGrace)
	defer timer.Stop()

	select {
	case <-barrier.Done():
		return false, barrier.Failure()
	case <-timer.C:
	}

	u.mu.Lock()
	u.state = stateCompleted
	detached := len(u.result.SubSteps)
	u.result.SubSteps = nil
	u.mu.Unlock()

	u.runner.logger.Warn(ctx, "posted work still running after interruption",
		"scenario", u.scenario,
		"step_number", u.result.Info.Numeral(),
		"pending", barrier.Pending(),
		"detached_sub_steps", detached,
	)
	return true, nil
}

func (u *stepUnit) evaluateParameters(ctx context.Context) error {
	for _, p := range u.params {
		if _, err := p.resolve(ctx, u.execCtx); err != nil {
			return err
		}
	}
	u.evaluated = true
	u.result.Parameters = u.describeParameters()
	return nil
}

func (u *stepUnit) describeParameters() []scenario.ParameterResult {
	out := make([]scenario.ParameterResult, len(u.params))
	for i, p := range u.params {
		out[i] = p.describe()
	}
	return out
}

func (u *stepUnit) verifyParameters() error {
	if !u.evaluated {
		return nil
	}
	u.result.Parameters = u.describeParameters()

	var problems []string
	for _, p := range u.result.Parameters {
		if p.Verification == nil || p.Verification.Status != scenario.StatusFailed {
			continue
		}
		problems = append(problems, fmt.Sprintf("%s: %s", p.Name, p.Verification.Message))
	}
	if len(problems) == 0 {
		return nil
	}
	return scenario.NewError(scenario.ErrCodeVerification, "parameter verification failed: "+strings.Join(problems, "; "), nil, nil)
}

// rename re-renders the display name. The ordinal identity is untouched.
func (u *stepUnit) rename() error {
	var params []scenario.ParameterResult
	if u.evaluated {
		params = u.result.Parameters
	}
	name, err := u.runner.formatStepName(u.desc, params)
	u.result.Info.Name = name
	return err
}

func (u *stepUnit) complete(failures []error) {
	u.mu.Lock()
	u.state = stateCompleted
	subSteps := u.result.SubSteps
	u.mu.Unlock()

	r := u.runner
	res := u.result

	status := scenario.StatusPassed
	for _, f := range failures {
		status = r.ranking.Merge(status, scenario.StatusOf(r.ranking, f))
	}
	all := append([]error(nil), failures...)
	for _, sub := range subSteps {
		status = r.ranking.Merge(status, sub.Status)
		if sub.Failure != nil {
			all = append(all, sub.Failure)
		}
	}

	res.Status = status
	res.Details = scenario.ComposeDetails(r.describeFailures(failures), subSteps)
	res.Failure = scenario.Aggregate(r.ranking, status, all...)
}

func (u *stepUnit) event(eventType ports.EventType) ports.Event {
	return ports.Event{
		Type:       eventType,
		RunID:      u.runID,
		Scenario:   u.scenario,
		Step:       u.result.Info,
		StepResult: u.result,
	}
}
