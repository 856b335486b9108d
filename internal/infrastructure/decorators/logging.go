package decorators

import (
	"context"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
	"github.com/alexisbeaulieu97/stagehand/internal/engine"
	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// StepLogging logs every step invocation and its outcome.
func StepLogging(logger ports.Logger) engine.StepDecorator {
	return engine.DecoratorFunc[*engine.StepInvocation](func(ctx context.Context, inv *engine.StepInvocation, next engine.Continuation) error {
		if logger == nil {
			return next(ctx)
		}
		fields := []interface{}{
			"scenario", inv.Scenario,
			"step_number", inv.Result.Info.Numeral(),
			"step", inv.Result.Info.Name,
		}
		logger.Debug(ctx, "invoking step", fields...)

		err := next(ctx)
		if err == nil {
			return nil
		}

		if reason, soft := scenario.SoftReason(err); soft {
			logger.Info(ctx, "step finished softly", append(fields, "outcome", scenario.Classify(err).String(), "reason", reason)...)
			return err
		}
		logger.Error(ctx, "step failed", append(fields, "error", err)...)
		return err
	})
}

// ScenarioLogging logs the start and outcome of every scenario body.
func ScenarioLogging(logger ports.Logger) engine.ScenarioDecorator {
	return engine.DecoratorFunc[*engine.ScenarioInvocation](func(ctx context.Context, inv *engine.ScenarioInvocation, next engine.Continuation) error {
		if logger == nil {
			return next(ctx)
		}
		logger.Info(ctx, "running scenario", "scenario", inv.Result.Name, "run_id", inv.Result.RunID, "steps", len(inv.Result.Steps))

		err := next(ctx)

		statuses := make([]scenario.ExecutionStatus, 0, len(inv.Result.Steps))
		executed := 0
		for _, step := range inv.Result.Steps {
			statuses = append(statuses, step.Status)
			if step.Executed() {
				executed++
			}
		}
		fields := []interface{}{
			"scenario", inv.Result.Name,
			"run_id", inv.Result.RunID,
			"executed", executed,
			"status", scenario.MergeAll(statuses...).String(),
		}
		if err != nil {
			logger.Error(ctx, "scenario body failed", append(fields, "error", err)...)
			return err
		}
		logger.Info(ctx, "scenario body completed", fields...)
		return nil
	})
}
