package notify

import (
	"context"
	"sync"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// Record is a snapshot of an event taken when it was delivered.
type Record struct {
	Type     ports.EventType
	RunID    string
	Scenario string
	Step     string
	Name     string
	Status   scenario.ExecutionStatus
	Comment  string
}

// Recorder is a synchronous notifier that snapshots every event it receives.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify implements ports.ProgressNotifier.
func (r *Recorder) Notify(_ context.Context, event ports.Event) error {
	r.Handle(event)
	return nil
}

// Handler adapts the recorder to a dispatcher subscription.
func (r *Recorder) Handler() ports.EventHandler {
	return func(_ context.Context, event ports.Event) error {
		r.Handle(event)
		return nil
	}
}

// Handle records a snapshot of event.
func (r *Recorder) Handle(event ports.Event) {
	rec := Record{
		Type:     event.Type,
		RunID:    event.RunID,
		Scenario: event.Scenario,
		Comment:  event.Comment,
	}
	switch event.Type {
	case ports.EventScenarioStarting, ports.EventScenarioFinished:
		if event.Result != nil {
			rec.Status = event.Result.Status
		}
	default:
		rec.Step = event.Step.Numeral()
		rec.Name = event.Step.Name
		if event.StepResult != nil && event.Type == ports.EventStepFinished {
			rec.Status = event.StepResult.Status
		}
	}

	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

// Records returns every snapshot in delivery order.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Count returns how many events of the given type were recorded.
func (r *Recorder) Count(eventType ports.EventType) int {
	count := 0
	for _, rec := range r.Records() {
		if rec.Type == eventType {
			count++
		}
	}
	return count
}

// Sequence returns "type step" strings for step events and the bare type
// for scenario events, in delivery order.
func (r *Recorder) Sequence() []string {
	records := r.Records()
	out := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Step == "" {
			out = append(out, string(rec.Type))
			continue
		}
		out = append(out, string(rec.Type)+" "+rec.Step)
	}
	return out
}

var _ ports.ProgressNotifier = (*Recorder)(nil)
