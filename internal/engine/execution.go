package engine

import (
	"context"
	"time"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// execution implements scenario.StepContext for one step invocation.
type execution struct {
	ctx  context.Context
	unit *stepUnit
}

var _ scenario.StepContext = (*execution)(nil)

func (e *execution) Step() scenario.StepInfo {
	return e.unit.result.Info
}

func (e *execution) Context() any {
	return e.unit.execCtx
}

func (e *execution) Args() []any {
	args := make([]any, len(e.unit.params))
	for i, p := range e.unit.params {
		args[i], _ = p.resolve(e.ctx, e.unit.execCtx)
	}
	return args
}

func (e *execution) Parameter(name string) (any, bool) {
	for _, p := range e.unit.params {
		if p.desc.Name != name {
			continue
		}
		v, err := p.resolve(e.ctx, e.unit.execCtx)
		return v, err == nil
	}
	return nil, false
}

func (e *execution) Comment(text string) {
	if !e.unit.active() {
		return
	}
	result := e.unit.result
	result.AddComment(scenario.Comment{Text: text, At: time.Now()})
	e.unit.runner.notify(e.ctx, ports.Event{
		Type:       ports.EventStepComment,
		RunID:      e.unit.runID,
		Scenario:   e.unit.scenario,
		Step:       result.Info,
		StepResult: result,
		Comment:    text,
	})
}

func (e *execution) Attach(attachment scenario.Attachment) {
	if !e.unit.active() {
		return
	}
	result := e.unit.result
	result.AddAttachment(attachment)
	e.unit.runner.notify(e.ctx, ports.Event{
		Type:       ports.EventStepAttachment,
		RunID:      e.unit.runID,
		Scenario:   e.unit.scenario,
		Step:       result.Info,
		StepResult: result,
		Attachment: attachment,
	})
}

func (e *execution) Go(fn func(ctx context.Context) error) {
	if !Go(e.ctx, fn) {
		e.unit.runner.logger.Warn(e.ctx, "posted work is not tracked by any barrier", "step", e.unit.result.Info.Name)
	}
}
