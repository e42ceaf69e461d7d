package parstream

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func BenchmarkRun(b *testing.B) {
	workloads := []struct {
		name   string
		mixed  bool
		tasks  int
		limit  int
		failAt int
	}{
		{name: "short/ok", mixed: false, tasks: 256, limit: 32, failAt: -1},
		{name: "short/fail_first", mixed: false, tasks: 256, limit: 32, failAt: 0},
		{name: "mixed/ok", mixed: true, tasks: 256, limit: 32, failAt: -1},
		{name: "mixed/fail_first", mixed: true, tasks: 256, limit: 32, failAt: 0},
	}

	for _, tc := range workloads {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := runOrderedCase(tc.tasks, tc.limit, tc.mixed, tc.failAt); err != nil {
					b.Fatalf("run failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkErrgroupUnordered is the baseline: the same workload on a plain
// errgroup with SetLimit, paying nothing for order preservation.
func BenchmarkErrgroupUnordered(b *testing.B) {
	workloads := []struct {
		name  string
		mixed bool
		tasks int
		limit int
	}{
		{name: "short/ok", mixed: false, tasks: 256, limit: 32},
		{name: "mixed/ok", mixed: true, tasks: 256, limit: 32},
	}

	for _, tc := range workloads {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if err := runUnorderedCase(tc.tasks, tc.limit, tc.mixed); err != nil {
					b.Fatalf("run failed: %v", err)
				}
			}
		})
	}
}

func runOrderedCase(tasks, limit int, mixed bool, failAt int) error {
	xs := make([]int, tasks)
	for i := range xs {
		xs[i] = i
	}

	n, err := RunSlice(context.Background(), xs, limit,
		func(ctx context.Context, idx int) (int, error) {
			return runBenchTask(ctx, idx, mixed, failAt)
		},
		func(int) error { return nil },
	)

	if failAt >= 0 {
		if err == nil {
			return errors.New("expected run error")
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("unexpected run error: %w", err)
	}
	if n != tasks {
		return fmt.Errorf("expected %d delivered, got %d", tasks, n)
	}
	return nil
}

func runUnorderedCase(tasks, limit int, mixed bool) error {
	eg, ctx := errgroup.WithContext(context.Background())
	eg.SetLimit(limit)

	for i := 0; i < tasks; i++ {
		idx := i
		eg.Go(func() error {
			_, err := runBenchTask(ctx, idx, mixed, -1)
			return err
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("unexpected run error: %w", err)
	}
	return nil
}

func runBenchTask(ctx context.Context, idx int, mixed bool, failAt int) (int, error) {
	if failAt >= 0 && idx == failAt {
		return 0, errors.New("boom")
	}

	if mixed && idx%8 == 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(200 * time.Microsecond):
		}
	}

	return idx * idx, nil
}
