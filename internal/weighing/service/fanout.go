package service

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// fanOut runs fetch once per id with at most limit calls in flight. Per-id
// failures are collected, never returned; only cancellation of ctx aborts
// the whole batch.
func fanOut[T any](ctx context.Context, limit int, ids []string, fetch func(context.Context, string) (T, error)) (map[string]T, map[string]error, error) {
	var (
		mu      sync.Mutex
		results = make(map[string]T, len(ids))
		failed  = make(map[string]error)
	)

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			v, err := fetch(gctx, id)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				mu.Lock()
				failed[id] = err
				mu.Unlock()
				return nil
			}
			mu.Lock()
			results[id] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return results, failed, nil
}
