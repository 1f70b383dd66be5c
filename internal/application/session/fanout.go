package session

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/example/rental-broker/internal/domain/rental"
)

// fanOut calls fn on every provider concurrently. Results come back indexed
// like providers, so callers see directory order regardless of which call
// finished first. The first error cancels the rest.
func fanOut[T any](ctx context.Context, providers []rental.Provider, fn func(context.Context, rental.Provider) (T, error)) ([]T, error) {
	out := make([]T, len(providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		g.Go(func() error {
			v, err := fn(gctx, p)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
