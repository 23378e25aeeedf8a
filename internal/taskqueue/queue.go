// Package taskqueue runs asynchronous jobs one at a time in submission order.
package taskqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"worklog/backend/internal/logfields"
)

type Job func(ctx context.Context) error

type entry struct {
	ctx    context.Context
	job    Job
	result chan error
}

// Queue is a FIFO with at most one job in flight. The runner goroutine starts when work
// arrives and exits once the queue is drained.
type Queue struct {
	mu      sync.Mutex
	pending []entry
	running bool
	idle    chan struct{}

	name    string
	onError func(error)
	logger  *slog.Logger
}

type Option func(*Queue)

// WithErrorHandler receives the error of every enqueued job that fails. Submitted jobs report
// to their caller instead.
func WithErrorHandler(fn func(error)) Option {
	return func(q *Queue) { q.onError = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

func New(name string, opts ...Option) *Queue {
	q := &Queue{name: name, logger: slog.Default()}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends a job without waiting for it. It never blocks on a running job.
func (q *Queue) Enqueue(job Job) {
	q.push(entry{ctx: context.Background(), job: job})
}

// Submit appends a job and waits for its result. If ctx ends first the job stays queued and
// runs with the canceled context.
func (q *Queue) Submit(ctx context.Context, job Job) error {
	result := make(chan error, 1)
	q.push(entry{ctx: ctx, job: job, result: result})

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every job enqueued so far, and any enqueued meanwhile, has finished.
func (q *Queue) Wait() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	idle := q.idle
	q.mu.Unlock()
	<-idle
}

// Len reports the jobs waiting to run, excluding the one in flight.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) push(e entry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, e)
	if q.running {
		return
	}
	q.running = true
	q.idle = make(chan struct{})
	go q.run(q.idle)
}

func (q *Queue) run(idle chan struct{}) {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			close(idle)
			q.mu.Unlock()
			return
		}
		next := q.pending[0]
		q.pending[0] = entry{}
		q.pending = q.pending[1:]
		q.mu.Unlock()

		err := q.exec(next)
		if next.result != nil {
			next.result <- err
			continue
		}
		if err != nil {
			q.logger.Warn("Queued job failed", logfields.Queue(q.name), logfields.Error(err))
			if q.onError != nil {
				q.onError(err)
			}
		}
	}
}

func (q *Queue) exec(e entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return e.job(e.ctx)
}
