package engine

import (
	"context"
	"errors"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
)

var errBoom = errors.New("boom")

func pass(name string) *scenario.StepDescriptor {
	return scenario.NewStep(name, func(context.Context, scenario.StepContext) (*scenario.ResultDescriptor, error) {
		return nil, nil
	})
}

func fail(name string, err error) *scenario.StepDescriptor {
	return scenario.NewStep(name, func(context.Context, scenario.StepContext) (*scenario.ResultDescriptor, error) {
		return nil, err
	})
}

func bypass(name, reason string) *scenario.StepDescriptor {
	return fail(name, scenario.Bypass(reason))
}

func ignore(name, reason string) *scenario.StepDescriptor {
	return fail(name, scenario.Ignore(reason))
}

func composite(name string, steps ...*scenario.StepDescriptor) *scenario.StepDescriptor {
	return scenario.NewStep(name, func(context.Context, scenario.StepContext) (*scenario.ResultDescriptor, error) {
		return scenario.Composite(steps...), nil
	})
}

func statuses(steps []*scenario.StepResult) []scenario.ExecutionStatus {
	out := make([]scenario.ExecutionStatus, len(steps))
	for i, step := range steps {
		out[i] = step.Status
	}
	return out
}

type failingNames struct {
	failOn string
}

func (f failingNames) FormatStep(step *scenario.StepDescriptor, _ []scenario.ParameterResult) (string, error) {
	if step.Name == f.failOn {
		return "", errors.New("cannot render name")
	}
	return step.Name, nil
}

func (f failingNames) FormatScenario(desc *scenario.ScenarioDescriptor) (string, error) {
	return desc.Name, nil
}
