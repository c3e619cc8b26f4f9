package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_CompletesWithValue(t *testing.T) {
	p := NewPool(2, nil)
	f := Go(p, context.Background(), func(context.Context) (int, error) { return 42, nil })

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, f.Completed())
}

func TestAwait_ContextEndsBeforeTask(t *testing.T) {
	release := make(chan struct{})
	f := Go(nil, context.Background(), func(context.Context) (string, error) {
		<-release
		return "late", nil
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.Completed())
}

func TestCancel_ReachesTaskContext(t *testing.T) {
	started := make(chan struct{})
	f := Go(NewPool(1, nil), context.Background(), func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	<-started
	f.Cancel()
	f.Cancel()

	_, err := f.Await(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const workers = 3
	p := NewPool(workers, nil)
	var current, peak atomic.Int64

	var futures []*Future[int]
	for i := 0; i < 20; i++ {
		futures = append(futures, Go(p, context.Background(), func(context.Context) (int, error) {
			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			current.Add(-1)
			return int(n), nil
		}))
	}
	for _, f := range futures {
		_, err := f.Await(context.Background())
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, peak.Load(), int64(workers))
}

func TestGo_PanicBecomesError(t *testing.T) {
	f := Go(NewPool(1, nil), context.Background(), func(context.Context) (int, error) {
		panic("bad entity")
	})
	_, err := f.Await(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPanicked)
	assert.Contains(t, err.Error(), "bad entity")
}

func TestThen_ChainsAndShortCircuits(t *testing.T) {
	p := NewPool(2, nil)
	ctx := context.Background()

	first := Go(p, ctx, func(context.Context) (int, error) { return 20, nil })
	second := Then(p, ctx, first, func(_ context.Context, v int) (string, error) {
		if v != 20 {
			return "", errors.New("unexpected input")
		}
		return "twenty", nil
	})
	got, err := second.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "twenty", got)

	boom := errors.New("get failed")
	failed := Then(p, ctx, Failed[int](boom), func(context.Context, int) (string, error) {
		t.Error("continuation ran after a failed future")
		return "", nil
	})
	_, err = failed.Await(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestResolved(t *testing.T) {
	f := Resolved("ok")
	assert.True(t, f.Completed())
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	f.Cancel()
}
