package parstream

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"golang.org/x/sync/errgroup"
)

// WorkerFunc computes one result from one item. Each invocation runs on its
// own goroutine and receives the context passed to Run; a non-nil error
// aborts the run.
type WorkerFunc[T, R any] func(context.Context, T) (R, error)

// ConsumerFunc receives results strictly in input order, on the calling
// goroutine. A non-nil error aborts the run.
type ConsumerFunc[R any] func(R) error

type outcome[R any] struct {
	value    R
	err      error
	panicked bool
	panicVal any
}

// Run computes worker over every item of items using at most limit
// concurrent goroutines and passes each result to consume in input order.
//
// items is consumed lazily, at most once, left to right; no item is pulled
// until the in-flight window has room for it. On success Run returns the
// number of results delivered, equal to the length of the sequence. On the
// first worker or consumer error Run stops dispatching, waits for every
// already-started worker, discards their results, and returns the error as
// a *StageError together with the count delivered before the failure.
//
// Once ctx is done no further items are dispatched or delivered; in-flight
// workers are still awaited and Run returns context.Cause(ctx). Workers are
// never interrupted: a dispatched item always runs to completion.
func Run[T, R any](
	ctx context.Context,
	items iter.Seq[T],
	limit int,
	worker WorkerFunc[T, R],
	consume ConsumerFunc[R],
	opts ...Option,
) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if items == nil {
		return 0, ErrNilSource
	}
	if worker == nil {
		return 0, ErrNilWorker
	}
	if consume == nil {
		return 0, ErrNilConsumer
	}
	if limit < 1 {
		return 0, fmt.Errorf("%w, got %d", ErrInvalidLimit, limit)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	next, stop := iter.Pull(items)
	defer stop()

	var (
		eg        errgroup.Group
		window    []chan outcome[R] // FIFO of in-flight handles, len <= limit
		front     int               // index of the item at window[0]
		delivered int
		runErr    error
		repanic   any
		exhausted bool
	)

	for {
		for runErr == nil && repanic == nil && !exhausted &&
			ctx.Err() == nil && len(window) < limit {
			item, ok := next()
			if !ok {
				exhausted = true
				break
			}
			ch := make(chan outcome[R], 1)
			eg.Go(func() error {
				ch <- invoke(ctx, worker, item)
				return nil
			})
			window = append(window, ch)
		}

		if len(window) == 0 {
			break
		}

		// Await the earliest-submitted worker; later ones keep running.
		out := <-window[0]
		window = window[1:]
		idx := front
		front++

		if runErr == nil && repanic == nil && ctx.Err() != nil {
			runErr = context.Cause(ctx)
		}
		if runErr != nil || repanic != nil {
			continue // draining, result discarded
		}

		switch {
		case out.panicked:
			if cfg.panicToError {
				runErr = &StageError{
					Stage: StageWorker,
					Index: idx,
					Err:   fmt.Errorf("panic recovered: %v", out.panicVal),
				}
			} else {
				repanic = out.panicVal
			}
		case out.err != nil:
			runErr = &StageError{Stage: StageWorker, Index: idx, Err: out.err}
		default:
			if err := consume(out.value); err != nil {
				runErr = &StageError{Stage: StageConsumer, Index: idx, Err: err}
			} else {
				delivered++
			}
		}
	}

	// Every handle has been received above; Wait pins the goroutine exits.
	_ = eg.Wait()

	if repanic != nil {
		panic(repanic)
	}
	if runErr == nil && !exhausted && ctx.Err() != nil {
		runErr = context.Cause(ctx)
	}
	return delivered, runErr
}

// RunSlice is Run over the elements of a slice.
func RunSlice[T, R any](
	ctx context.Context,
	xs []T,
	limit int,
	worker WorkerFunc[T, R],
	consume ConsumerFunc[R],
	opts ...Option,
) (int, error) {
	return Run(ctx, slices.Values(xs), limit, worker, consume, opts...)
}

// RunChan is Run over the values received from a channel until it closes.
// Once dispatch stops the channel is no longer read from.
func RunChan[T, R any](
	ctx context.Context,
	ch <-chan T,
	limit int,
	worker WorkerFunc[T, R],
	consume ConsumerFunc[R],
	opts ...Option,
) (int, error) {
	if ch == nil {
		return 0, ErrNilSource
	}
	seq := func(yield func(T) bool) {
		for v := range ch {
			if !yield(v) {
				return
			}
		}
	}
	return Run(ctx, seq, limit, worker, consume, opts...)
}

func invoke[T, R any](ctx context.Context, worker WorkerFunc[T, R], item T) (out outcome[R]) {
	defer func() {
		if r := recover(); r != nil {
			out.panicked = true
			out.panicVal = r
		}
	}()
	out.value, out.err = worker(ctx, item)
	return
}
