// Package decorators provides the built-in step and scenario decorators.
package decorators

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/stagehand/internal/engine"
)

// ErrTimeout is matched by every TimeoutError.
var ErrTimeout = errors.New("step timed out")

// TimeoutError reports a step body that outlived its time limit.
type TimeoutError struct {
	Step  string
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("step %q did not complete within %s", e.Step, e.Limit)
}

// Is matches ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// StepTimeout fails a step whose remaining chain has not returned within
// limit. The remainder runs as posted work with a context cancelled on
// timeout, so the step still drains it before completing; an error it returns
// after the timeout fired is captured by the barrier and joins the step's
// failure, unless it only reports the cancellation itself. A non-positive limit disables the decorator.
func StepTimeout(limit time.Duration) engine.StepDecorator {
	return engine.DecoratorFunc[*engine.StepInvocation](func(ctx context.Context, inv *engine.StepInvocation, next engine.Continuation) error {
		if limit <= 0 {
			return next(ctx)
		}

		bodyCtx, cancel := context.WithTimeout(ctx, limit)
		defer cancel()

		done := make(chan error)
		engine.Go(bodyCtx, func(ctx context.Context) error {
			err := next(ctx)
			select {
			case done <- err:
				return nil
			default:
			}
			if errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		})

		select {
		case err := <-done:
			return err
		case <-bodyCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TimeoutError{Step: inv.Result.Info.Name, Limit: limit}
		}
	})
}
