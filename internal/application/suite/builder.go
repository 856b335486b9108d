// Package suite turns suite documents into scenario descriptors and runs them.
package suite

import (
	"context"
	"fmt"
	"maps"
	"os"

	"github.com/alexisbeaulieu97/stagehand/internal/config"
	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/scope"
	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

const (
	exitCodeParameter = "exit_code"
	outputParameter   = "output"
)

// Workspace is the execution context shared by the steps of one scenario.
// Name is the scenario name for inline workspaces and the declared name for
// shared ones.
type Workspace struct {
	Name    string
	Shell   string
	WorkDir string
	Env     map[string]string
}

// open checks the working directory and returns a private copy.
func (w Workspace) open() (*Workspace, error) {
	if w.WorkDir != "" {
		info, err := os.Stat(w.WorkDir)
		if err != nil {
			return nil, fmt.Errorf("workdir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("workdir %q is not a directory", w.WorkDir)
		}
	}
	w.Env = maps.Clone(w.Env)
	return &w, nil
}

// CommandError reports a step command that exited with a non-zero code.
type CommandError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("command %q exited with code %d: %s", e.Command, e.ExitCode, e.Output)
	}
	return fmt.Sprintf("command %q exited with code %d", e.Command, e.ExitCode)
}

// Builder converts suite documents into scenario descriptors.
type Builder struct {
	runner   ports.CommandRunner
	settings config.Settings
	contexts *scope.Resolver
}

// NewBuilder creates a builder running step commands through runner.
func NewBuilder(runner ports.CommandRunner, settings config.Settings) *Builder {
	return &Builder{runner: runner, settings: settings, contexts: scope.NewResolver()}
}

// Contexts resolves the shared workspaces registered by Build. Scenarios that
// reference a workspace by name only run under a runner configured with it.
func (b *Builder) Contexts() *scope.Resolver {
	return b.contexts
}

// Build returns one descriptor per scenario of the suite, in declaration order.
func (b *Builder) Build(suite *config.Suite) []*scenario.ScenarioDescriptor {
	if suite == nil {
		return nil
	}
	for name, spec := range suite.Workspaces {
		workspace := Workspace{Name: name, Shell: b.settings.Shell, WorkDir: spec.WorkDir, Env: spec.Env}
		_ = b.contexts.Register(name, func(context.Context) (any, error) {
			return workspace.open()
		})
	}
	descs := make([]*scenario.ScenarioDescriptor, 0, len(suite.Scenarios))
	for _, sc := range suite.Scenarios {
		descs = append(descs, b.scenario(sc))
	}
	return descs
}

func (b *Builder) scenario(sc config.Scenario) *scenario.ScenarioDescriptor {
	desc := &scenario.ScenarioDescriptor{
		Name:       sc.Name,
		Labels:     sc.Labels,
		Categories: sc.Categories,
		Steps:      b.steps(sc.Steps),
	}
	if sc.Workspace != "" {
		desc.ContextName = sc.Workspace
		return desc
	}

	workspace := Workspace{
		Name:    sc.Name,
		Shell:   b.settings.Shell,
		WorkDir: sc.WorkDir,
		Env:     sc.Env,
	}
	desc.Context = func(context.Context) (scenario.ExecutionContext, error) {
		ws, err := workspace.open()
		if err != nil {
			return scenario.ExecutionContext{}, err
		}
		return scenario.ExecutionContext{Value: ws}, nil
	}
	return desc
}

func (b *Builder) steps(steps []config.Step) []*scenario.StepDescriptor {
	out := make([]*scenario.StepDescriptor, 0, len(steps))
	for _, step := range steps {
		out = append(out, b.step(step))
	}
	return out
}

func (b *Builder) step(step config.Step) *scenario.StepDescriptor {
	var params []scenario.ParameterDescriptor
	if step.ExpectExitCode != nil {
		params = append(params, scenario.Const(exitCodeParameter, scenario.Expect(*step.ExpectExitCode)))
	}
	if step.ExpectOutput != nil {
		params = append(params, scenario.Const(outputParameter, ExpectOutput(*step.ExpectOutput)))
	}
	children := b.steps(step.Steps)

	desc := scenario.NewStep(step.Name, func(ctx context.Context, sc scenario.StepContext) (*scenario.ResultDescriptor, error) {
		ws := workspaceFrom(sc)
		for _, line := range step.Background {
			sc.Go(func(ctx context.Context) error {
				return b.background(ctx, ws, step, line)
			})
		}

		switch {
		case step.Bypass != "":
			return nil, scenario.Bypass(step.Bypass)
		case step.Ignore != "":
			return nil, scenario.Ignore(step.Ignore)
		case len(children) > 0:
			result := scenario.Composite(children...)
			if step.ContinueOnFailure {
				result.AbortPolicy = scenario.NeverAbort
			}
			return result, nil
		case step.Run != "":
			return nil, b.run(ctx, sc, ws, step)
		}
		return nil, nil
	}, params...)
	desc.TypeHint = step.Kind
	return desc
}

func (b *Builder) run(ctx context.Context, sc scenario.StepContext, ws *Workspace, step config.Step) error {
	if timeout := step.Timeout.Std(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := b.runner.Run(ctx, command(ws, step, step.Run))
	if err != nil {
		return err
	}
	if res.Stdout != "" {
		sc.Comment(res.Stdout)
	}
	if v, ok := sc.Parameter(outputParameter); ok {
		if expected, ok := v.(*OutputExpectation); ok {
			expected.SetActual(res.Stdout)
		}
	}

	if step.ExpectExitCode != nil {
		if v, ok := sc.Parameter(exitCodeParameter); ok {
			if expected, ok := v.(*scenario.Expected[int]); ok {
				expected.SetActual(res.ExitCode)
			}
		}
		return nil
	}
	if res.ExitCode != 0 {
		return &CommandError{Command: step.Run, ExitCode: res.ExitCode, Output: primaryOutput(res)}
	}
	return nil
}

func (b *Builder) background(ctx context.Context, ws *Workspace, step config.Step, line string) error {
	res, err := b.runner.Run(ctx, command(ws, step, line))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &CommandError{Command: line, ExitCode: res.ExitCode, Output: primaryOutput(res)}
	}
	return nil
}

func command(ws *Workspace, step config.Step, line string) ports.Command {
	env := make(map[string]string, len(ws.Env)+len(step.Env))
	for k, v := range ws.Env {
		env[k] = v
	}
	for k, v := range step.Env {
		env[k] = v
	}
	return ports.Command{Line: line, Shell: ws.Shell, WorkDir: ws.WorkDir, Env: env}
}

func workspaceFrom(sc scenario.StepContext) *Workspace {
	if ws, ok := sc.Context().(*Workspace); ok && ws != nil {
		return ws
	}
	return &Workspace{}
}

func primaryOutput(res ports.CommandResult) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	return res.Stdout
}
