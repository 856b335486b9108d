package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	stagehanderrors "github.com/alexisbeaulieu97/stagehand/pkg/errors"
)

const (
	exitSuiteFailed  = 1
	exitInvalidSuite = 2
)

// errSuiteFailed reports a run where at least one scenario failed.
var errSuiteFailed = errors.New("suite failed")

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// withExitCode maps configuration errors to exitInvalidSuite.
func withExitCode(err error) error {
	if err == nil {
		return nil
	}
	var parseErr *stagehanderrors.ParseError
	var validationErr *stagehanderrors.ValidationError
	switch {
	case errors.Is(err, errSuiteFailed):
		return &exitError{code: exitSuiteFailed}
	case errors.As(err, &parseErr), errors.As(err, &validationErr):
		return &exitError{code: exitInvalidSuite, err: err}
	}
	return err
}

func validateSuitePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("suite file is required")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve suite path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("suite file does not exist: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("suite path %s is a directory", abs)
	}

	return nil
}
