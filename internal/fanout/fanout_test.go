package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}
	out, err := Map(context.Background(), NewPool(3, 0), items, func(_ context.Context, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 10, 40, 20, 30}, out)
}

func TestMap_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	items := make([]int, 20)

	_, err := Map(context.Background(), NewPool(2, 0), items, func(_ context.Context, _ int) (struct{}, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestMap_FirstErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32

	_, err := Map(context.Background(), NewPool(1, 0), []int{1, 2, 3, 4}, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMap_EmptyAndNilPool(t *testing.T) {
	out, err := Map(context.Background(), nil, []string{}, func(_ context.Context, s string) (string, error) {
		return s, nil
	})
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = Map(context.Background(), nil, []string{"a", "b"}, func(_ context.Context, s string) (string, error) {
		return s + s, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"aa", "bb"}, out)
}

func TestMap_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Map(ctx, NewPool(2, 5), []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewPool_Throttle(t *testing.T) {
	p := NewPool(0, 0)
	assert.Equal(t, 1, p.Workers)
	assert.Nil(t, p.Limiter)

	p = NewPool(3, 2.5)
	require.NotNil(t, p.Limiter)
	assert.Equal(t, 3, p.Limiter.Burst())
}
