package universe

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Executor is the scheduling collaborator a Universe's AdvanceTo consumes:
// unordered submission of tasks, cooperative cancellation via ctx. The
// engine never constructs a thread pool itself; callers bring their own
// (a worker pool, a goroutine-per-task fire-and-forget executor, a bounded
// one like BoundedExecutor below).
type Executor interface {
	// Submit runs task, eventually, honoring ctx for cancellation. Submit
	// itself may block (e.g. waiting for a free slot) but must not run task
	// synchronously on the calling goroutine — AdvanceTo relies on Submit
	// returning control so many actors can be in flight at once.
	Submit(ctx context.Context, task func()) error
}

// BoundedExecutor is the reference Executor: it runs tasks on their own
// goroutines but admits at most capacity concurrently, via a weighted
// semaphore. It is the natural home for golang.org/x/sync/semaphore, present
// in the teacher's dependency graph only transitively until now.
type BoundedExecutor struct {
	sem *semaphore.Weighted
}

// NewBoundedExecutor returns an Executor that runs at most capacity tasks
// concurrently. capacity must be positive.
func NewBoundedExecutor(capacity int64) *BoundedExecutor {
	return &BoundedExecutor{sem: semaphore.NewWeighted(capacity)}
}

// Submit blocks until a slot is available or ctx is done, then runs task on
// a new goroutine.
func (e *BoundedExecutor) Submit(ctx context.Context, task func()) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	go func() {
		defer e.sem.Release(1)
		task()
	}()
	return nil
}
