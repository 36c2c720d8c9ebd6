// Package workerpool provides a bounded, order-preserving concurrent map.
package workerpool

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Func processes a single item.
type Func[T, R any] func(ctx context.Context, item T) (R, error)

// Map applies fn to every item with at most limit invocations in flight.
// The result slice is indexed like items regardless of completion order.
//
// The first error is returned with a nil slice as soon as it happens. It
// cancels the context passed to in-flight invocations and stops further
// dispatch. Invocations already running finish in the background; their
// results are dropped. A limit below 1 is treated as 1.
func Map[T, R any](ctx context.Context, items []T, limit int, fn Func[T, R]) ([]R, error) {
	if limit < 1 {
		limit = 1
	}

	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	failed := make(chan error, 1)
	fail := func(err error) error {
		select {
		case failed <- err:
		default:
		}
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i, item := range items {
			if gctx.Err() != nil {
				break
			}
			i, item := i, item
			g.Go(func() error {
				// A slot may free up only after a sibling failed.
				if err := gctx.Err(); err != nil {
					return fail(err)
				}
				r, err := invoke(gctx, fn, item)
				if err != nil {
					return fail(err)
				}
				results[i] = r
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case err := <-failed:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
	}

	select {
	case err := <-failed:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// invoke converts a panic in fn into an error so it fails the batch
// instead of the process.
func invoke[T, R any](ctx context.Context, fn Func[T, R], item T) (r R, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("worker panic: %v", p)
		}
	}()
	return fn(ctx, item)
}
