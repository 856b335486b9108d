package ports

import "context"

// Command is a shell command line executed on behalf of a step.
type Command struct {
	Line    string
	Shell   string
	WorkDir string
	Env     map[string]string
}

// CommandResult captures the output of a finished command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner executes commands. A command that ran and exited non-zero is
// reported through ExitCode with a nil error; errors are reserved for commands
// that could not be started or were interrupted.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (CommandResult, error)
}
