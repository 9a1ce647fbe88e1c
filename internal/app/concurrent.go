package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// concurrent loads all repositories in a task group, one task per repository.
// Canceling ctx cancels every task of the group.
type concurrent struct {
	f     *fetcher
	limit int
}

// Run blocks until all tasks are done.
func (c *concurrent) Run(ctx context.Context, spec RequestSpec, onUpdate UpdateFunc) {
	repos := c.f.repos(ctx, spec.Org)

	g, gctx := errgroup.WithContext(ctx)
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}
	results := make([][]Contributor, len(repos))
	for i, repo := range repos {
		i, repo := i, repo
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.f.contributors(gctx, spec.Org, repo)
			return nil
		})
	}
	if err := g.Wait(); err != nil || ctx.Err() != nil {
		return
	}

	var all []Contributor
	for _, r := range results {
		all = append(all, r...)
	}
	onUpdate(Aggregate(all), true)
}
