// Package shell runs step commands through the host shell.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/alexisbeaulieu97/stagehand/internal/ports"
)

// Runner implements ports.CommandRunner with os/exec.
type Runner struct {
	stdout io.Writer
	stderr io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput mirrors command output to the given writers while it is
// collected. Nil writers discard.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// NewRunner creates a Runner. Output is collected but not mirrored by default.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run implements ports.CommandRunner.
func (r *Runner) Run(ctx context.Context, command ports.Command) (ports.CommandResult, error) {
	if strings.TrimSpace(command.Line) == "" {
		return ports.CommandResult{}, fmt.Errorf("command is empty")
	}

	shell, shellArgs, err := determineShell(command.Shell)
	if err != nil {
		return ports.CommandResult{}, err
	}

	args := append(shellArgs, command.Line)
	cmd := exec.CommandContext(ctx, shell, args...)
	cmd.Env = buildEnv(command.Env)
	if command.WorkDir != "" {
		cmd.Dir = command.WorkDir
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = tee(r.stdout, &stdoutBuf)
	cmd.Stderr = tee(r.stderr, &stderrBuf)

	runErr := cmd.Run()
	result := ports.CommandResult{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}
	if runErr == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) && ctx.Err() == nil {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if ctx.Err() != nil {
		return result, fmt.Errorf("command interrupted: %w", ctx.Err())
	}
	return result, runErr
}

func tee(mirror io.Writer, buf *bytes.Buffer) io.Writer {
	if mirror == nil {
		return buf
	}
	return io.MultiWriter(mirror, buf)
}

func determineShell(explicit string) (string, []string, error) {
	if explicit != "" {
		return explicit, []string{"-c"}, nil
	}

	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}, nil
	}

	if path, err := exec.LookPath("bash"); err == nil {
		return path, []string{"-c"}, nil
	}

	if path, err := exec.LookPath("sh"); err == nil {
		return path, []string{"-c"}, nil
	}

	return "", nil, fmt.Errorf("no suitable shell found")
}

func buildEnv(custom map[string]string) []string {
	env := os.Environ()
	keys := make([]string, 0, len(custom))
	for k := range custom {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, custom[k]))
	}
	return env
}

var _ ports.CommandRunner = (*Runner)(nil)
