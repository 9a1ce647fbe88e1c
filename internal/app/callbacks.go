package app

import (
	"context"
	"sync"
	"sync/atomic"
)

// callbacks issues every request asynchronously and handles results in
// completion callbacks. No goroutine owns the job: the callback of the last
// arriving response emits the result.
type callbacks struct {
	f *fetcher
}

// Run doesn't block.
func (c *callbacks) Run(ctx context.Context, spec RequestSpec, onUpdate UpdateFunc) {
	onResponse(func() []Repo {
		return c.f.repos(ctx, spec.Org)
	}, func(repos []Repo) {
		b := newBarrier(len(repos), func(all []Contributor) {
			if ctx.Err() != nil {
				return
			}
			onUpdate(Aggregate(all), true)
		})
		if len(repos) == 0 {
			b.release()
			return
		}

		for _, repo := range repos {
			repo := repo
			onResponse(func() []Contributor {
				if ctx.Err() != nil {
					return nil
				}
				return c.f.contributors(ctx, spec.Org, repo)
			}, b.arrive)
		}
	})
}

// onResponse calls call on a new goroutine and passes its result to callback.
func onResponse[T any](call func() T, callback func(T)) {
	go func() {
		callback(call())
	}()
}

// barrier collects contributors from concurrent callbacks and calls done once
// all expected arrivals were counted. Completion is decided by the arrival
// count, not by which request happens to finish last.
type barrier struct {
	expected int64
	arrived  int64

	m   sync.Mutex
	all []Contributor

	done func([]Contributor)
}

func newBarrier(expected int, done func([]Contributor)) *barrier {
	return &barrier{
		expected: int64(expected),
		done:     done,
	}
}

func (b *barrier) arrive(contributors []Contributor) {
	b.m.Lock()
	b.all = append(b.all, contributors...)
	b.m.Unlock()

	if atomic.AddInt64(&b.arrived, 1) == b.expected {
		b.release()
	}
}

func (b *barrier) release() {
	b.m.Lock()
	all := b.all
	b.m.Unlock()

	b.done(all)
}
