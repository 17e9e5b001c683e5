package service

import (
	"context"
	"time"
)

// withDeadline runs fn on its own goroutine and returns whichever comes first: its result,
// the deadline or the caller's cancellation. The query context is cancelled on return and
// a late result lands in the buffered channel and is dropped.
func withDeadline[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}

	qctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(qctx)
		done <- result{val: v, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case r := <-done:
		return r.val, r.err
	case <-timer.C:
		return zero, ErrDeadlineExceeded
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
