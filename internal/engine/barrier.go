package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
)

type barrierKey struct{}

// Barrier tracks work posted during one step invocation so the step is not
// declared finished before that work completes. A Barrier is carried by the
// context handed to the step body; posts made from posted work reuse the same
// context and are therefore tracked too.
type Barrier struct {
	previous *Barrier

	pending atomic.Int64
	sealed  atomic.Bool
	once    sync.Once
	done    chan struct{}

	mu       sync.Mutex
	failures []error
	late     int
}

// InstallBarrier derives a context carrying a new Barrier. The barrier that
// was ambient in ctx, if any, is captured as Previous; callers restore it by
// continuing with their original ctx once the barrier is drained.
func InstallBarrier(ctx context.Context) (context.Context, *Barrier) {
	b := &Barrier{
		previous: BarrierFrom(ctx),
		done:     make(chan struct{}),
	}
	return context.WithValue(ctx, barrierKey{}, b), b
}

// BarrierFrom returns the barrier installed in ctx, or nil.
func BarrierFrom(ctx context.Context) *Barrier {
	if ctx == nil {
		return nil
	}
	b, _ := ctx.Value(barrierKey{}).(*Barrier)
	return b
}

// Previous returns the barrier that was ambient when b was installed.
func (b *Barrier) Previous() *Barrier {
	return b.previous
}

// Go runs fn in a new goroutine, tracked by the barrier installed in ctx.
// fn receives ctx, so anything it posts is tracked by the same barrier. It
// reports false when no barrier is installed and fn runs untracked.
func Go(ctx context.Context, fn func(ctx context.Context) error) bool {
	b := BarrierFrom(ctx)
	if b == nil {
		go func() {
			_ = callRecovered(func() error { return fn(ctx) })
		}()
		return false
	}
	b.Post(ctx, fn)
	return true
}

// Post runs fn in a new goroutine and tracks its completion and failure.
func (b *Barrier) Post(ctx context.Context, fn func(ctx context.Context) error) {
	b.pending.Add(1)
	if b.sealed.Load() && b.isDone() {
		b.mu.Lock()
		b.late++
		b.mu.Unlock()
	}
	go func() {
		defer b.complete()
		if err := callRecovered(func() error { return fn(ctx) }); err != nil {
			b.capture(err)
		}
	}()
}

// Pending returns the number of posted functions still running.
func (b *Barrier) Pending() int {
	return int(b.pending.Load())
}

// Late returns how many functions were posted after the barrier had drained.
// Their failures are still collected but no longer affect the step.
func (b *Barrier) Late() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.late
}

// Drain declares that no more direct work will be posted and waits until
// every posted function has completed, or ctx is done. It returns the
// collected failures: nil, the single failure, or a multierror aggregate.
func (b *Barrier) Drain(ctx context.Context) error {
	b.sealed.Store(true)
	if b.pending.Load() == 0 {
		b.signal()
	}
	select {
	case <-b.done:
		return b.Failure()
	case <-ctx.Done():
		return scenario.NewError(scenario.ErrCodeInterrupted, "interrupted while waiting for posted work", ctx.Err(), map[string]interface{}{
			"pending": b.Pending(),
		})
	}
}

// Done is closed once the barrier has drained.
func (b *Barrier) Done() <-chan struct{} {
	return b.done
}

// Failure returns the failures collected so far.
func (b *Barrier) Failure() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch len(b.failures) {
	case 0:
		return nil
	case 1:
		return b.failures[0]
	}
	return &multierror.Error{Errors: append([]error(nil), b.failures...)}
}

func (b *Barrier) capture(err error) {
	b.mu.Lock()
	b.failures = append(b.failures, err)
	b.mu.Unlock()
}

func (b *Barrier) complete() {
	if b.pending.Add(-1) == 0 && b.sealed.Load() {
		b.signal()
	}
}

func (b *Barrier) signal() {
	b.once.Do(func() { close(b.done) })
}

func (b *Barrier) isDone() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
