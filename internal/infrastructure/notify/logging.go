package notify

import (
	"context"

	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// LoggingHandler returns a handler writing every event as a structured log
// entry.
func LoggingHandler(logger ports.Logger) ports.EventHandler {
	return func(ctx context.Context, event ports.Event) error {
		if logger == nil {
			return nil
		}
		fields := []interface{}{"event_type", string(event.Type), "run_id", event.RunID, "scenario", event.Scenario}
		switch event.Type {
		case ports.EventStepStarting, ports.EventStepRenamed, ports.EventStepFinished, ports.EventStepComment, ports.EventStepAttachment:
			fields = append(fields, "step_number", event.Step.Numeral(), "step", event.Step.Name)
		}
		switch {
		case event.Type == ports.EventStepFinished && event.StepResult != nil:
			fields = append(fields, "status", event.StepResult.Status.String(), "duration_ms", event.StepResult.Duration.Milliseconds())
		case event.Type == ports.EventScenarioFinished && event.Result != nil:
			fields = append(fields, "status", event.Result.Status.String(), "duration_ms", event.Result.Duration.Milliseconds())
		case event.Type == ports.EventStepComment:
			fields = append(fields, "comment", event.Comment)
		case event.Type == ports.EventStepAttachment:
			fields = append(fields, "attachment", event.Attachment.Name, "path", event.Attachment.Path)
		}
		logger.Info(ctx, "lifecycle event", fields...)
		return nil
	}
}
