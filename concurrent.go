package classpath

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ResolveConfigurations resolves several requests concurrently, typically
// the compile and runtime classpaths of one root. Results are returned in
// request order. The first error cancels requests that have not started.
func (r *Resolver) ResolveConfigurations(ctx context.Context, reqs ...Request) ([]*ResolvedGraph, error) {
	results := make([]*ResolvedGraph, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := r.Resolve(req)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
