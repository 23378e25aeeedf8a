package taskqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJobsRunInSubmissionOrder(t *testing.T) {
	q := New("test")

	var mu sync.Mutex
	var order []int
	release := make(chan struct{})

	q.Enqueue(func(context.Context) error {
		<-release
		mu.Lock()
		order = append(order, 0)
		mu.Unlock()
		return nil
	})
	for i := 1; i <= 5; i++ {
		i := i
		q.Enqueue(func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}
	close(release)
	q.Wait()

	require.Equal(t, []int{0, 1, 2, 3, 4, 5}, order)
	require.Zero(t, q.Len())
}

func TestAtMostOneJobInFlight(t *testing.T) {
	q := New("test")

	var inFlight, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(func(context.Context) error {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()
	q.Wait()

	require.EqualValues(t, 1, peak.Load())
}

func TestEnqueueFromRunningJob(t *testing.T) {
	q := New("test")
	done := make(chan struct{})

	q.Enqueue(func(context.Context) error {
		q.Enqueue(func(context.Context) error {
			close(done)
			return nil
		})
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job enqueued from a running job never ran")
	}
	q.Wait()
}

func TestFailuresDoNotStopTheQueue(t *testing.T) {
	boom := errors.New("boom")
	var reported []error
	var mu sync.Mutex
	q := New("test", WithErrorHandler(func(err error) {
		mu.Lock()
		reported = append(reported, err)
		mu.Unlock()
	}))

	ran := false
	q.Enqueue(func(context.Context) error { return boom })
	q.Enqueue(func(context.Context) error { panic("kaboom") })
	q.Enqueue(func(context.Context) error {
		ran = true
		return nil
	})
	q.Wait()

	require.True(t, ran)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reported, 2)
	require.ErrorIs(t, reported[0], boom)
	require.Contains(t, reported[1].Error(), "kaboom")
}

func TestSubmitReturnsJobResult(t *testing.T) {
	q := New("test")
	boom := errors.New("boom")

	require.NoError(t, q.Submit(context.Background(), func(context.Context) error { return nil }))
	require.ErrorIs(t, q.Submit(context.Background(), func(context.Context) error { return boom }), boom)
}

func TestSubmitHonorsContext(t *testing.T) {
	q := New("test")
	release := make(chan struct{})
	q.Enqueue(func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := q.Submit(ctx, func(ctx context.Context) error { return ctx.Err() })
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	q.Wait()
}

func TestWaitOnIdleQueueReturns(t *testing.T) {
	q := New("test")
	q.Wait()
	require.NoError(t, q.Submit(context.Background(), func(context.Context) error { return nil }))
	q.Wait()
}
