package ports

import (
	"context"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
)

// EventType names a lifecycle notification.
type EventType string

const (
	// EventScenarioStarting is emitted once a scenario has been admitted.
	EventScenarioStarting EventType = "scenario.starting"
	// EventScenarioFinished is emitted exactly once per started scenario.
	EventScenarioFinished EventType = "scenario.finished"
	// EventStepStarting is emitted before a step's parameters are evaluated,
	// carrying the placeholder name.
	EventStepStarting EventType = "step.starting"
	// EventStepRenamed is emitted when the resolved parameters change the
	// step's display name after it started.
	EventStepRenamed EventType = "step.renamed"
	// EventStepFinished is emitted exactly once per started step.
	EventStepFinished EventType = "step.finished"
	// EventStepComment is emitted when a step body records a comment.
	EventStepComment EventType = "step.comment"
	// EventStepAttachment is emitted when a step body records an attachment.
	EventStepAttachment EventType = "step.attachment"
)

// Event is a lifecycle notification. Step and Scenario results are the live
// objects owned by the engine; sinks must treat them as read-only and should
// copy what they need before returning when delivery is asynchronous.
type Event struct {
	Type       EventType
	RunID      string
	Scenario   string
	Step       scenario.StepInfo
	StepResult *scenario.StepResult
	Result     *scenario.ScenarioResult
	Comment    string
	Attachment scenario.Attachment
}

// ProgressNotifier receives ordered lifecycle events. Notify must not block
// the run for long; errors it returns are logged and never surfaced to the
// scenario result.
type ProgressNotifier interface {
	Notify(ctx context.Context, event Event) error
}

// EventHandler processes an event. Handlers should avoid panicking; failures
// should be surfaced via returned errors so dispatchers can log diagnostics
// and continue delivering to remaining subscribers.
type EventHandler func(context.Context, Event) error

// Subscription represents a registered handler. Callers must invoke
// Unsubscribe to stop receiving events and release resources.
type Subscription interface {
	Unsubscribe()
}
