package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_PreservesInputOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	// b finishes well before a
	delays := map[string]time.Duration{
		"a": 40 * time.Millisecond,
		"b": 1 * time.Millisecond,
		"c": 20 * time.Millisecond,
		"d": 1 * time.Millisecond,
		"e": 5 * time.Millisecond,
	}

	var mu sync.Mutex
	var completed []string

	out, err := Map(context.Background(), items, 2, func(_ context.Context, s string) (string, error) {
		time.Sleep(delays[s])
		mu.Lock()
		completed = append(completed, s)
		mu.Unlock()
		return "f(" + s + ")", nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"f(a)", "f(b)", "f(c)", "f(d)", "f(e)"}, out)
	assert.Equal(t, "b", completed[0], "b should complete first")
}

func TestMap_RespectsLimit(t *testing.T) {
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}

	var inFlight, maxInFlight atomic.Int32
	_, err := Map(context.Background(), items, 3, func(_ context.Context, n int) (int, error) {
		cur := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return n * 2, nil
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, maxInFlight.Load(), int32(3))
	assert.GreaterOrEqual(t, maxInFlight.Load(), int32(2))
}

func TestMap_FailsOnThirdInput(t *testing.T) {
	errBoom := errors.New("boom")
	items := []int{1, 2, 3, 4, 5}

	out, err := Map(context.Background(), items, 2, func(_ context.Context, n int) (int, error) {
		if n == 3 {
			return 0, errBoom
		}
		return n, nil
	})

	require.ErrorIs(t, err, errBoom)
	assert.Nil(t, out)
}

func TestMap_NoDispatchAfterFailure(t *testing.T) {
	errBoom := errors.New("boom")
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}

	var calls atomic.Int32
	_, err := Map(context.Background(), items, 1, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		if n == 2 {
			return 0, errBoom
		}
		return n, nil
	})

	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMap_FailureReturnsWithoutWaitingForInFlight(t *testing.T) {
	errBoom := errors.New("boom")
	started := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})

	type outcome struct {
		out []int
		err error
	}
	returned := make(chan outcome, 1)

	go func() {
		out, err := Map(context.Background(), []int{0, 1}, 2, func(_ context.Context, n int) (int, error) {
			if n == 1 {
				<-started
				return 0, errBoom
			}
			// Ignores cancellation on purpose.
			close(started)
			<-release
			close(finished)
			return n, nil
		})
		returned <- outcome{out: out, err: err}
	}()

	select {
	case res := <-returned:
		require.ErrorIs(t, res.err, errBoom)
		assert.Nil(t, res.out)
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("Map did not return while a worker was still running")
	}

	select {
	case <-finished:
		t.Fatal("in-flight worker finished before it was released")
	default:
	}

	close(release)
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight worker did not finish in the background")
	}
}

func TestMap_ParentCancelReturnsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)

	started := make(chan struct{})
	go func() {
		<-started
		cancel()
	}()

	out, err := Map(ctx, []int{0}, 1, func(_ context.Context, n int) (int, error) {
		close(started)
		<-release
		return n, nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
}

func TestMap_PanicBecomesError(t *testing.T) {
	out, err := Map(context.Background(), []int{1, 2}, 2, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			panic("defect")
		}
		return n, nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker panic")
	assert.Nil(t, out)
}

func TestMap_Empty(t *testing.T) {
	out, err := Map(context.Background(), []int(nil), 4, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMap_LimitClampedToOne(t *testing.T) {
	out, err := Map(context.Background(), []int{1, 2, 3}, 0, func(_ context.Context, n int) (int, error) {
		return n + 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, out)
}

func TestMap_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := Map(ctx, []int{1, 2, 3}, 2, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
}
