package engine

import (
	"context"
	"errors"

	"github.com/hashicorp/go-multierror"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
)

var errNilStep = errors.New("nil step descriptor")

type groupPlan struct {
	scenario string
	runID    string
	prefix   string
	path     []int
	steps    []*scenario.StepDescriptor
	// provider resolves the group's own context; nil inherits execCtx.
	provider scenario.ContextProvider
	execCtx  any
	abort    scenario.AbortPolicy
}

// stepGroup runs a list of steps sequentially under one execution context.
// Its results always carry the full intended shape; steps skipped after an
// abort stay NotRun.
type stepGroup struct {
	runner   *Runner
	plan     groupPlan
	units    []*stepUnit
	results  []*scenario.StepResult
	executed int
}

func newStepGroup(r *Runner, plan groupPlan) *stepGroup {
	g := &stepGroup{
		runner:  r,
		plan:    plan,
		units:   make([]*stepUnit, len(plan.steps)),
		results: make([]*scenario.StepResult, len(plan.steps)),
	}

	total := len(plan.steps)
	for i, desc := range plan.steps {
		if desc == nil {
			desc = scenario.InvalidStep("", errNilStep)
		}
		path := make([]int, len(plan.path), len(plan.path)+1)
		copy(path, plan.path)
		path = append(path, i+1)

		name, _ := r.formatStepName(desc, nil)
		result := scenario.NewStepResult(scenario.StepInfo{
			Number:      i + 1,
			GroupPrefix: plan.prefix,
			Total:       total,
			Path:        path,
			Name:        name,
		})
		g.results[i] = result
		g.units[i] = &stepUnit{
			runner:   r,
			desc:     desc,
			result:   result,
			params:   newParameters(desc.Parameters),
			scenario: plan.scenario,
			runID:    plan.runID,
		}
	}
	return g
}

// Executed returns how many steps ran.
func (g *stepGroup) Executed() int {
	return g.executed
}

// run executes the steps in order. Step outcomes are recorded on the step
// results; the returned error only carries failures attributed to the group
// as a whole, such as context initialization or disposal.
func (g *stepGroup) run(ctx context.Context) (err error) {
	r := g.runner
	execCtx := g.plan.execCtx

	if g.plan.provider != nil {
		resolved, resolveErr := resolveContext(ctx, g.plan.provider)
		if resolveErr != nil {
			return scenario.NewError(scenario.ErrCodeContextInit, "sub-step context initialization failed", resolveErr, nil)
		}
		execCtx = resolved.Value
		defer func() {
			if disposeErr := dispose(ctx, resolved); disposeErr != nil {
				err = multierror.Append(err, disposeErr).ErrorOrNil()
			}
		}()
	}

	for i, unit := range g.units {
		unit.execCtx = execCtx
		unit.run(ctx)
		g.executed++

		if i < len(g.units)-1 && g.shouldAbort(unit.result) {
			r.logger.Debug(ctx, "aborting remaining steps",
				"scenario", g.plan.scenario,
				"step_number", unit.result.Info.Numeral(),
				"status", unit.result.Status.String(),
				"skipped", len(g.units)-i-1,
			)
			break
		}
	}
	return nil
}

func (g *stepGroup) shouldAbort(result *scenario.StepResult) bool {
	r := g.runner
	if !r.ranking.AtLeast(result.Status, r.abortThreshold) {
		return false
	}
	policy := g.plan.abort
	if policy == nil {
		policy = r.abortPolicy
	}
	abort := true
	_ = callRecovered(func() error {
		abort = policy(result)
		return nil
	})
	return abort
}

func resolveContext(ctx context.Context, provider scenario.ContextProvider) (scenario.ExecutionContext, error) {
	var resolved scenario.ExecutionContext
	err := callRecovered(func() error {
		var err error
		resolved, err = provider(ctx)
		return err
	})
	return resolved, err
}

func dispose(ctx context.Context, resolved scenario.ExecutionContext) error {
	if resolved.Dispose == nil {
		return nil
	}
	if err := callRecovered(func() error { return resolved.Dispose(ctx) }); err != nil {
		return scenario.NewError(scenario.ErrCodeTeardown, "context disposal failed", err, nil)
	}
	return nil
}
