package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/stagehand/internal/domain/scenario"
)

func TestBarrierDrainWaitsForEveryPost(t *testing.T) {
	ctx, barrier := InstallBarrier(context.Background())

	var completed atomic.Int64
	for i := 0; i < 50; i++ {
		delay := time.Duration(i%5) * time.Millisecond
		require.True(t, Go(ctx, func(context.Context) error {
			time.Sleep(delay)
			completed.Add(1)
			return nil
		}))
	}

	require.NoError(t, barrier.Drain(context.Background()))
	require.Equal(t, int64(50), completed.Load())
	require.Zero(t, barrier.Pending())
}

func TestBarrierDrainWithoutPosts(t *testing.T) {
	_, barrier := InstallBarrier(context.Background())
	require.NoError(t, barrier.Drain(context.Background()))

	select {
	case <-barrier.Done():
	default:
		t.Fatal("barrier should be done after draining nothing")
	}
}

func TestBarrierCollectsFailures(t *testing.T) {
	t.Run("single failure is returned as is", func(t *testing.T) {
		ctx, barrier := InstallBarrier(context.Background())
		boom := errors.New("boom")
		Go(ctx, func(context.Context) error { return nil })
		Go(ctx, func(context.Context) error { return boom })

		require.Same(t, boom, barrier.Drain(context.Background()))
	})

	t.Run("several failures are aggregated", func(t *testing.T) {
		ctx, barrier := InstallBarrier(context.Background())
		for i := 0; i < 3; i++ {
			Go(ctx, func(context.Context) error { return fmt.Errorf("failure %d", i) })
		}
		Go(ctx, func(context.Context) error { return nil })

		err := barrier.Drain(context.Background())
		var aggregate *multierror.Error
		require.ErrorAs(t, err, &aggregate)
		require.Len(t, aggregate.Errors, 3)
	})

	t.Run("panics are captured", func(t *testing.T) {
		ctx, barrier := InstallBarrier(context.Background())
		Go(ctx, func(context.Context) error { panic("kaboom") })

		err := barrier.Drain(context.Background())
		require.True(t, scenario.HasCode(err, scenario.ErrCodePanic))
		require.Contains(t, err.Error(), "kaboom")
	})
}

func TestBarrierTracksNestedPosts(t *testing.T) {
	ctx, barrier := InstallBarrier(context.Background())

	var leaves atomic.Int64
	Go(ctx, func(ctx context.Context) error {
		for i := 0; i < 3; i++ {
			Go(ctx, func(ctx context.Context) error {
				Go(ctx, func(context.Context) error {
					time.Sleep(5 * time.Millisecond)
					leaves.Add(1)
					return nil
				})
				return nil
			})
		}
		return nil
	})

	require.NoError(t, barrier.Drain(context.Background()))
	require.Equal(t, int64(3), leaves.Load())
}

func TestBarrierDrainInterrupted(t *testing.T) {
	ctx, barrier := InstallBarrier(context.Background())
	release := make(chan struct{})
	Go(ctx, func(context.Context) error {
		<-release
		return nil
	})

	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := barrier.Drain(waitCtx)
	require.True(t, scenario.HasCode(err, scenario.ErrCodeInterrupted))
	require.Equal(t, 1, barrier.Pending())

	close(release)
	<-barrier.Done()
}

func TestBarrierRestoresPrevious(t *testing.T) {
	outerCtx, outer := InstallBarrier(context.Background())
	innerCtx, inner := InstallBarrier(outerCtx)

	require.Same(t, outer, inner.Previous())
	require.Same(t, inner, BarrierFrom(innerCtx))
	require.Same(t, outer, BarrierFrom(outerCtx))
	require.Nil(t, outer.Previous())
}

func TestGoWithoutBarrierRunsUntracked(t *testing.T) {
	done := make(chan struct{})
	tracked := Go(context.Background(), func(context.Context) error {
		close(done)
		return nil
	})
	require.False(t, tracked)
	<-done
}
