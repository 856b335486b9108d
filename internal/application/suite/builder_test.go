package suite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/stagehand/internal/config"
	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
	"github.com/alexisbeaulieu97/stagehand/internal/engine"
	"github.com/alexisbeaulieu97/stagehand/internal/infrastructure/notify"
	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

func TestBuilderRunsCommandsInOrder(t *testing.T) {
	suite := parseSuite(t, `
version: "1.0"
name: checkout
scenarios:
  - name: happy path
    labels: [smoke]
    workdir: .
    env:
      STAGE: test
    steps:
      - name: seed database
        kind: given
        run: ./seed.sh
        env:
          SEED: "42"
      - name: place order
        kind: when
        run: ./order.sh
`)
	commands := newFakeCommands()
	commands.results["./seed.sh"] = ports.CommandResult{Stdout: "seeded\n"}

	descs := NewBuilder(commands, suite.Settings).Build(suite)
	require.Len(t, descs, 1)
	require.Equal(t, []string{"smoke"}, descs[0].Labels)
	require.Equal(t, "given", descs[0].Steps[0].TypeHint)

	result := engine.NewRunner().Run(context.Background(), descs[0])
	require.Equal(t, scenario.StatusPassed, result.Status)
	require.Equal(t, []string{"./seed.sh", "./order.sh"}, commands.lines())

	seed, ok := commands.call("./seed.sh")
	require.True(t, ok)
	require.Equal(t, ".", seed.WorkDir)
	require.Equal(t, map[string]string{"STAGE": "test", "SEED": "42"}, seed.Env)

	order, _ := commands.call("./order.sh")
	require.Equal(t, map[string]string{"STAGE": "test"}, order.Env)

	comments := result.Steps[0].Comments()
	require.Len(t, comments, 1)
	require.Equal(t, "seeded\n", comments[0].Text)
}

func TestBuilderNonZeroExitFailsAndAborts(t *testing.T) {
	suite := parseSuite(t, `
version: "1.0"
name: checkout
scenarios:
  - name: broken
    steps:
      - name: migrate
        run: ./migrate.sh
      - name: never
        run: ./never.sh
`)
	commands := newFakeCommands()
	commands.results["./migrate.sh"] = ports.CommandResult{ExitCode: 3, Stderr: "no such table"}

	result := engine.NewRunner().Run(context.Background(), NewBuilder(commands, suite.Settings).Build(suite)[0])
	require.Equal(t, scenario.StatusFailed, result.Status)
	require.Equal(t, scenario.StatusNotRun, result.Steps[1].Status)
	require.Equal(t, []string{"./migrate.sh"}, commands.lines())

	var cmdErr *CommandError
	require.ErrorAs(t, result.Steps[0].Failure, &cmdErr)
	require.Equal(t, 3, cmdErr.ExitCode)
	require.Equal(t, "no such table", cmdErr.Output)
}

func TestBuilderExpectedExitCode(t *testing.T) {
	suite := parseSuite(t, `
version: "1.0"
name: cli
scenarios:
  - name: rejects bad input
    steps:
      - name: exits with <exit_code>
        run: ./cli --bad
        expect_exit_code: 2
`)
	run := func(code int) *scenario.ScenarioResult {
		commands := newFakeCommands()
		commands.results["./cli --bad"] = ports.CommandResult{ExitCode: code}
		return engine.NewRunner().Run(context.Background(), NewBuilder(commands, suite.Settings).Build(suite)[0])
	}

	ok := run(2)
	require.Equal(t, scenario.StatusPassed, ok.Status)

	bad := run(0)
	require.Equal(t, scenario.StatusFailed, bad.Status)
	require.True(t, scenario.HasCode(bad.Steps[0].Failure, scenario.ErrCodeVerification))
	require.Contains(t, bad.Steps[0].Info.Name, "actual 0")
}

func TestBuilderSoftOutcomes(t *testing.T) {
	suite := parseSuite(t, `
version: "1.0"
name: soft
scenarios:
  - name: mixed
    steps:
      - name: flaky upstream
        bypass: upstream is down
      - name: known issue
        ignore: tracked elsewhere
      - name: still runs
        run: ./after.sh
`)
	commands := newFakeCommands()
	result := engine.NewRunner().Run(context.Background(), NewBuilder(commands, suite.Settings).Build(suite)[0])

	require.Equal(t, scenario.StatusBypassed, result.Steps[0].Status)
	require.Equal(t, scenario.StatusIgnored, result.Steps[1].Status)
	require.Equal(t, scenario.StatusPassed, result.Steps[2].Status)
	require.Equal(t, scenario.StatusIgnored, result.Status)
	require.Equal(t, []string{"./after.sh"}, commands.lines())
}

func TestBuilderNestedStepsAndContinueOnFailure(t *testing.T) {
	suite := parseSuite(t, `
version: "1.0"
name: nested
scenarios:
  - name: groups
    steps:
      - name: prepare
        run: ./prepare.sh
      - name: checks
        continue_on_failure: true
        steps:
          - name: first
            run: ./first.sh
          - name: second
            run: ./second.sh
      - name: after
        run: ./after.sh
`)
	commands := newFakeCommands()
	commands.results["./first.sh"] = ports.CommandResult{ExitCode: 1}
	recorder := notify.NewRecorder()

	result := engine.NewRunner(engine.WithNotifier(recorder)).Run(context.Background(), NewBuilder(commands, suite.Settings).Build(suite)[0])

	require.Equal(t, scenario.StatusFailed, result.Status)
	require.Equal(t, []string{"./prepare.sh", "./first.sh", "./second.sh"}, commands.lines())

	group, ok := result.Step(2)
	require.True(t, ok)
	require.Equal(t, scenario.StatusFailed, group.Status)
	second, ok := result.Step(2, 2)
	require.True(t, ok)
	require.Equal(t, "2.2", second.Info.Numeral())
	require.Equal(t, scenario.StatusPassed, second.Status)
	require.Equal(t, scenario.StatusNotRun, result.Steps[2].Status)

	require.Equal(t, recorder.Count(ports.EventStepStarting), recorder.Count(ports.EventStepFinished))
}

func TestBuilderBackgroundCommandsAreDrained(t *testing.T) {
	suite := parseSuite(t, `
version: "1.0"
name: background
scenarios:
  - name: with watcher
    steps:
      - name: start service
        run: ./start.sh
        background:
          - ./tail-logs.sh
`)
	commands := newFakeCommands()
	commands.results["./tail-logs.sh"] = ports.CommandResult{ExitCode: 9, Stdout: "panic in worker"}

	result := engine.NewRunner().Run(context.Background(), NewBuilder(commands, suite.Settings).Build(suite)[0])
	require.Equal(t, scenario.StatusFailed, result.Status)
	require.ElementsMatch(t, []string{"./start.sh", "./tail-logs.sh"}, commands.lines())

	var cmdErr *CommandError
	require.ErrorAs(t, result.Steps[0].Failure, &cmdErr)
	require.Equal(t, "./tail-logs.sh", cmdErr.Command)
	require.Contains(t, cmdErr.Error(), "panic in worker")
}

func TestBuilderStepTimeout(t *testing.T) {
	suite := parseSuite(t, `
version: "1.0"
name: slow
scenarios:
  - name: hangs
    steps:
      - name: wait forever
        run: ./hang.sh
        timeout: 20ms
`)
	commands := newFakeCommands()
	commands.block["./hang.sh"] = true

	start := time.Now()
	result := engine.NewRunner().Run(context.Background(), NewBuilder(commands, suite.Settings).Build(suite)[0])
	require.Less(t, time.Since(start), 5*time.Second)
	require.Equal(t, scenario.StatusFailed, result.Status)
	require.True(t, errors.Is(result.Steps[0].Failure, context.DeadlineExceeded))
}

func TestBuilderMissingWorkDirFailsContext(t *testing.T) {
	suite := parseSuite(t, `
version: "1.0"
name: workdir
scenarios:
  - name: nowhere
    workdir: /definitely/not/here
    steps:
      - name: never
        run: ./never.sh
`)
	commands := newFakeCommands()
	result := engine.NewRunner().Run(context.Background(), NewBuilder(commands, suite.Settings).Build(suite)[0])

	require.Equal(t, scenario.StatusFailed, result.Status)
	require.Empty(t, commands.lines())
	require.True(t, scenario.HasCode(result.Failure, scenario.ErrCodeContextInit))
	require.ErrorContains(t, result.Failure, "workdir")
}

func TestBuildNilSuite(t *testing.T) {
	require.Nil(t, NewBuilder(newFakeCommands(), config.Settings{}).Build(nil))
}

func TestBuilderExpectedOutput(t *testing.T) {
	suite := parseSuite(t, `
version: "1.0"
name: cli
scenarios:
  - name: prints greeting
    steps:
      - name: greet
        run: ./greet.sh
        expect_output: |
          hello
          world
`)
	run := func(stdout string) *scenario.ScenarioResult {
		commands := newFakeCommands()
		commands.results["./greet.sh"] = ports.CommandResult{Stdout: stdout}
		return engine.NewRunner().Run(context.Background(), NewBuilder(commands, suite.Settings).Build(suite)[0])
	}

	require.Equal(t, scenario.StatusPassed, run("hello\nworld").Status)

	bad := run("hello\nthere\n")
	require.Equal(t, scenario.StatusFailed, bad.Status)
	require.True(t, scenario.HasCode(bad.Steps[0].Failure, scenario.ErrCodeVerification))
	require.Contains(t, bad.Steps[0].Details, "-world")
	require.Contains(t, bad.Steps[0].Details, "+there")
}

func TestBuilderRegistersSharedWorkspaces(t *testing.T) {
	suite := parseSuite(t, `
version: "1.0"
name: monorepo
workspaces:
  repo:
    workdir: .
scenarios:
  - name: lint
    workspace: repo
    steps:
      - name: run linter
        run: ./lint.sh
`)
	builder := NewBuilder(newFakeCommands(), suite.Settings)
	descs := builder.Build(suite)
	require.Equal(t, "repo", descs[0].ContextName)
	require.Nil(t, descs[0].Context)
	require.Equal(t, []string{"repo"}, builder.Contexts().Names())

	first, err := builder.Contexts().Resolve(context.Background(), "repo")
	require.NoError(t, err)
	second, err := builder.Contexts().Resolve(context.Background(), "repo")
	require.NoError(t, err)
	require.NotSame(t, first.Value, second.Value)
	require.Equal(t, "repo", first.Value.(*Workspace).Name)

	unresolved := engine.NewRunner().Run(context.Background(), descs[0])
	require.Equal(t, scenario.StatusFailed, unresolved.Status)
	require.True(t, scenario.HasCode(unresolved.Failure, scenario.ErrCodeContextInit))

	resolved := engine.NewRunner(engine.WithContextResolver(builder.Contexts())).Run(context.Background(), descs[0])
	require.Equal(t, scenario.StatusPassed, resolved.Status)
}
