package refreshworker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls int32
	err   error
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	atomic.AddInt32(&r.calls, 1)
	return r.err
}

func TestStartWorker(t *testing.T) {
	t.Run(`periodic refresh`, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		engine := &countingRefresher{}
		StartWorker(ctx, engine, 2*time.Millisecond)
		require.Eventually(t, func() bool {
			return atomic.LoadInt32(&engine.calls) >= 2
		}, 2*time.Second, time.Millisecond)
	})

	t.Run(`refresh error does not stop worker`, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		engine := &countingRefresher{err: errors.New("db unavailable")}
		StartWorker(ctx, engine, 2*time.Millisecond)
		require.Eventually(t, func() bool {
			return atomic.LoadInt32(&engine.calls) >= 2
		}, 2*time.Second, time.Millisecond)
	})

	t.Run(`zero interval disables worker`, func(t *testing.T) {
		engine := &countingRefresher{}
		StartWorker(context.Background(), engine, 0)
		time.Sleep(10 * time.Millisecond)
		require.Equal(t, int32(0), atomic.LoadInt32(&engine.calls))
	})

	t.Run(`cancelled context`, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		engine := &countingRefresher{}
		newWorker(engine, time.Millisecond).handle(ctx)
		require.Equal(t, int32(0), atomic.LoadInt32(&engine.calls))
	})
}
