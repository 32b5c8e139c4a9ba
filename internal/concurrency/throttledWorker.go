package concurrency

import (
	"context"
	"time"
)

// ThrottledWorker runs a job per argument with a fixed spacing between jobs,
// so a burst of dispatches does not flood the bridge.
type ThrottledWorker[T any] struct {
	spacing     time.Duration
	jobCallback func(arg T) error
}

func NewThrottledWorker[T any](spacing time.Duration, jobCallback func(arg T) error) ThrottledWorker[T] {
	return ThrottledWorker[T]{spacing: spacing, jobCallback: jobCallback}
}

// Run executes the jobs in order and returns the number of failures. Jobs
// already started finish; cancelling the context stops new jobs from
// starting.
func (w *ThrottledWorker[T]) Run(ctx context.Context, jobArgs []T) int {
	limiter := time.NewTicker(w.spacing)
	defer limiter.Stop()

	failures := 0
	for _, arg := range jobArgs {
		select {
		case <-ctx.Done():
			return failures
		case <-limiter.C:
		}
		if err := w.jobCallback(arg); err != nil {
			failures++
		}
	}
	return failures
}
