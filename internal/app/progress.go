package app

import "context"

// progressive loads repositories one by one and reports aggregated result
// after each of them.
type progressive struct {
	f *fetcher
}

// Run blocks until all repositories are loaded or ctx is canceled.
func (p *progressive) Run(ctx context.Context, spec RequestSpec, onUpdate UpdateFunc) {
	repos := p.f.repos(ctx, spec.Org)
	if len(repos) == 0 {
		if ctx.Err() == nil {
			onUpdate([]Contributor{}, true)
		}
		return
	}

	var all []Contributor
	for i, repo := range repos {
		if ctx.Err() != nil {
			return
		}
		contributors := p.f.contributors(ctx, spec.Org, repo)
		if ctx.Err() != nil {
			return
		}

		all = append(all, contributors...)
		onUpdate(Aggregate(all), i == len(repos)-1)
	}
}
