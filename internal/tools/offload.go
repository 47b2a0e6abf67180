package tools

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"
)

// Runner executes blocking ERP work off the caller's goroutine with a bound on
// concurrent calls.
//
// A caller whose context ends stops waiting and gets ctx.Err(); the work it started
// is detached from that cancellation and runs to completion against the ERP.
type Runner struct {
	sem *semaphore.Weighted
}

func NewRunner(maxConcurrent int) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Runner{sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

type outcome struct {
	value any
	err   error
}

// Run executes fn on a worker goroutine.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	done := make(chan outcome, 1)
	go func() {
		defer r.sem.Release(1)
		defer func() {
			if p := recover(); p != nil {
				slog.Error("tool handler panicked", "panic", p)
				done <- outcome{err: fmt.Errorf("tool handler panicked: %v", p)}
			}
		}()
		v, err := fn(context.WithoutCancel(ctx))
		done <- outcome{value: v, err: err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
