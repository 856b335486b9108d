package decorators

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/alexisbeaulieu97/stagehand/internal/engine"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/clock"
	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// StepMetrics observes the duration of every step invocation, labelled by
// nesting depth.
func StepMetrics(collector ports.MetricsCollector) engine.StepDecorator {
	timer := clock.New()
	return engine.DecoratorFunc[*engine.StepInvocation](func(ctx context.Context, inv *engine.StepInvocation, next engine.Continuation) error {
		if collector == nil {
			return next(ctx)
		}
		stopwatch := timer.Start()
		err := next(ctx)
		collector.ObserveHistogram(ctx, ports.MetricStepDuration, stopwatch.Elapsed().Seconds(), map[string]string{
			"depth": strconv.Itoa(len(inv.Result.Info.Path)),
		})
		return err
	})
}

// ScenarioMetrics maintains the running-scenarios gauge and observes the
// duration of every scenario body.
func ScenarioMetrics(collector ports.MetricsCollector) engine.ScenarioDecorator {
	timer := clock.New()
	var running atomic.Int64
	return engine.DecoratorFunc[*engine.ScenarioInvocation](func(ctx context.Context, _ *engine.ScenarioInvocation, next engine.Continuation) error {
		if collector == nil {
			return next(ctx)
		}
		collector.SetGauge(ctx, ports.MetricScenariosRunning, float64(running.Add(1)), nil)
		defer func() {
			collector.SetGauge(ctx, ports.MetricScenariosRunning, float64(running.Add(-1)), nil)
		}()

		stopwatch := timer.Start()
		err := next(ctx)
		collector.ObserveHistogram(ctx, ports.MetricScenarioDuration, stopwatch.Elapsed().Seconds(), nil)
		return err
	})
}
