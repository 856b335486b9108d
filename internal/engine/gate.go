package engine

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate bounds how many scenarios run at the same time. Scenarios that do not
// get a slot wait until one frees up.
type Gate struct {
	sem     *semaphore.Weighted
	limit   int
	running atomic.Int64
	peak    atomic.Int64
}

// NewGate creates a gate admitting limit scenarios at once. A non-positive
// limit defaults to the host parallelism.
func NewGate(limit int) *Gate {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	if limit < 1 {
		limit = 1
	}
	return &Gate{sem: semaphore.NewWeighted(int64(limit)), limit: limit}
}

// Acquire blocks until a slot is free or ctx is done. The returned release
// function is idempotent.
func (g *Gate) Acquire(ctx context.Context) (func(), error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return func() {}, err
	}
	current := g.running.Add(1)
	for {
		peak := g.peak.Load()
		if current <= peak || g.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.running.Add(-1)
			g.sem.Release(1)
		})
	}, nil
}

// Limit returns the number of slots.
func (g *Gate) Limit() int {
	return g.limit
}

// Running returns the number of currently admitted scenarios.
func (g *Gate) Running() int {
	return int(g.running.Load())
}

// Peak returns the highest number of simultaneously admitted scenarios seen.
func (g *Gate) Peak() int {
	return int(g.peak.Load())
}
