package engine

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
)

// callRecovered runs fn and converts a panic into a PANIC domain error that
// carries the stack of the panicking goroutine.
func callRecovered(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn()
}

func panicError(r any) error {
	var cause error
	if asErr, ok := r.(error); ok {
		cause = pkgerrors.WithStack(asErr)
	} else {
		cause = pkgerrors.Errorf("%v", r)
	}
	return scenario.NewError(scenario.ErrCodePanic, fmt.Sprintf("panic: %v", r), cause, nil)
}
