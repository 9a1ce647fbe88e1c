package app

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// streaming loads repositories concurrently. Producers send contributor lists
// to a bounded channel, the Run goroutine consumes them in arrival order and
// reports aggregated result after each one.
type streaming struct {
	f     *fetcher
	size  int
	limit int
}

// Run blocks until all repositories are consumed or ctx is canceled.
func (s *streaming) Run(ctx context.Context, spec RequestSpec, onUpdate UpdateFunc) {
	repos := s.f.repos(ctx, spec.Org)
	if len(repos) == 0 {
		if ctx.Err() == nil {
			onUpdate([]Contributor{}, true)
		}
		return
	}

	ch := NewProgressChannel[[]Contributor](s.size)
	producersDone := s.produce(ctx, spec.Org, repos, ch)
	defer func() {
		// Unblocks producers waiting for free space, then drops what they left.
		ch.Close()
		<-producersDone
		ch.Drain()
	}()

	var all []Contributor
	for i := range repos {
		contributors, ok := ch.Receive(ctx)
		if !ok || ctx.Err() != nil {
			return
		}
		all = append(all, contributors...)
		onUpdate(Aggregate(all), i == len(repos)-1)
	}
}

// produce starts one producer per repository. Returned chan is closed when
// all producers have finished.
func (s *streaming) produce(ctx context.Context, org string, repos []Repo, ch *ProgressChannel[[]Contributor]) <-chan struct{} {
	done := make(chan struct{})

	var g errgroup.Group
	if s.limit > 0 {
		g.SetLimit(s.limit)
	}
	go func() {
		defer close(done)
		for _, repo := range repos {
			if ctx.Err() != nil {
				break
			}
			repo := repo
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				ch.Send(ctx, s.f.contributors(ctx, org, repo))
				return nil
			})
		}
		_ = g.Wait()
	}()

	return done
}
