package app

import "context"

// sequential loads repositories one by one on the caller's goroutine.
type sequential struct {
	f *fetcher
}

// Run blocks until all repositories are loaded or ctx is canceled.
func (s *sequential) Run(ctx context.Context, spec RequestSpec, onUpdate UpdateFunc) {
	repos := s.f.repos(ctx, spec.Org)

	var all []Contributor
	for _, repo := range repos {
		if ctx.Err() != nil {
			return
		}
		all = append(all, s.f.contributors(ctx, spec.Org, repo)...)
	}
	if ctx.Err() != nil {
		return
	}

	onUpdate(Aggregate(all), true)
}
