package notify

import (
	"context"

	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// MetricsHandler counts finished steps and scenarios by final status.
func MetricsHandler(collector ports.MetricsCollector) ports.EventHandler {
	return func(ctx context.Context, event ports.Event) error {
		if collector == nil {
			return nil
		}
		switch {
		case event.Type == ports.EventStepFinished && event.StepResult != nil:
			collector.IncCounter(ctx, ports.MetricStepsTotal, map[string]string{"status": event.StepResult.Status.String()})
		case event.Type == ports.EventScenarioFinished && event.Result != nil:
			collector.IncCounter(ctx, ports.MetricScenariosTotal, map[string]string{"status": event.Result.Status.String()})
		}
		return nil
	}
}
