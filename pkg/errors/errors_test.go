package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("unexpected token")
	err := NewParseError("suite.yaml", 12, underlying)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "suite.yaml", parseErr.Path)
	require.Equal(t, 12, parseErr.Line)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "suite.yaml:12")
}

func TestValidationErrorIncludesField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("scenarios[1].steps", "must not be empty", nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "scenarios[1].steps", validationErr.Field)
	require.Contains(t, err.Error(), "must not be empty")
}

func TestExecutionErrorDistinguishesPhase(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("command failed")

	subjectErr := NewExecutionError("install git", underlying)
	var executionErr *ExecutionError
	require.ErrorAs(t, subjectErr, &executionErr)
	require.True(t, executionErr.InSubject())
	require.Equal(t, "install git", executionErr.Subject)
	require.True(t, stdErrors.Is(subjectErr, underlying))
	require.Contains(t, subjectErr.Error(), "execution error on install git")

	decoratorErr := NewDecoratorError("install git", underlying)
	require.ErrorAs(t, decoratorErr, &executionErr)
	require.False(t, executionErr.InSubject())
	require.Contains(t, decoratorErr.Error(), "decorator error")
}

func TestNilErrorsRenderEmpty(t *testing.T) {
	t.Parallel()

	var execErr *ExecutionError
	require.Empty(t, execErr.Error())
	require.Nil(t, execErr.Unwrap())
	require.False(t, execErr.InSubject())
}
