package evo

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Scheduler defers tasks. Engine.Start hands it one task per generation.
type Scheduler interface {
	Schedule(ctx context.Context, task func(context.Context))
}

// PacedScheduler runs each task on its own goroutine, no more often than
// once per tick.
type PacedScheduler struct {
	limiter *rate.Limiter
}

// NewPacedScheduler returns an unthrottled scheduler for tick <= 0.
func NewPacedScheduler(tick time.Duration) *PacedScheduler {
	limit := rate.Inf
	if tick > 0 {
		limit = rate.Every(tick)
	}
	return &PacedScheduler{limiter: rate.NewLimiter(limit, 1)}
}

func (s *PacedScheduler) Schedule(ctx context.Context, task func(context.Context)) {
	go func() {
		if err := s.limiter.Wait(ctx); err != nil {
			// Wait fails early when the next slot is past the deadline.
			<-ctx.Done()
		}
		task(ctx)
	}()
}

type queuedTask struct {
	ctx  context.Context
	task func(context.Context)
}

// QueueScheduler queues tasks until the host calls RunPending, which suits
// hosts that own their loop.
type QueueScheduler struct {
	mu      sync.Mutex
	pending []queuedTask
}

func NewQueueScheduler() *QueueScheduler {
	return &QueueScheduler{}
}

func (q *QueueScheduler) Schedule(ctx context.Context, task func(context.Context)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, queuedTask{ctx: ctx, task: task})
}

// RunPending runs the tasks queued before the call and returns how many ran.
// Tasks they schedule wait for the next call.
func (q *QueueScheduler) RunPending() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, t := range batch {
		t.task(t.ctx)
	}
	return len(batch)
}

func (q *QueueScheduler) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Run tracks an evolution started with Engine.Start.
type Run struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newRun() *Run {
	return &Run{done: make(chan struct{})}
}

func (r *Run) finish(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Done is closed once the run terminated.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run terminated and returns its error.
func (r *Run) Wait() error {
	<-r.done
	return r.err
}

// Err returns the terminal error, or nil while the run is still going.
func (r *Run) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}
