package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/m-zajac/orgcontributors/internal/app"
)

// CachedClient wraps github client with caching layer.
// Errors are never cached.
type CachedClient struct {
	client            app.GithubClient
	reposCache        *lru.Cache
	contributorsCache *lru.Cache
	ttl               time.Duration
	now               func() time.Time
}

var _ app.GithubClient = &CachedClient{}

// NewCachedClient creates new CachedClient instance.
func NewCachedClient(client app.GithubClient, size int, ttl time.Duration) (*CachedClient, error) {
	if size <= 0 {
		return nil, errors.New("cache size must be greater than 0")
	}
	reposCache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache for repos: %w", err)
	}
	contributorsCache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache for contributors: %w", err)
	}

	return &CachedClient{
		client:            client,
		reposCache:        reposCache,
		contributorsCache: contributorsCache,
		ttl:               ttl,
		now:               time.Now,
	}, nil
}

// ListRepos returns repositories of given organization.
func (c *CachedClient) ListRepos(ctx context.Context, org string) ([]app.Repo, error) {
	key := c.reposCacheKey(org)
	if val, ok := c.reposCache.Get(key); ok {
		entry := val.(reposCacheEntry)
		if c.fresh(entry.created) {
			return entry.data, nil
		}
		c.reposCache.Remove(key)
	}

	repos, err := c.client.ListRepos(ctx, org)
	if err != nil {
		return repos, err
	}

	c.reposCache.Add(key, reposCacheEntry{
		created: c.now(),
		data:    repos,
	})

	return repos, nil
}

// ListContributors returns contributors of given repository.
func (c *CachedClient) ListContributors(ctx context.Context, org string, repo string) ([]app.Contributor, error) {
	key := c.contributorsCacheKey(org, repo)
	if val, ok := c.contributorsCache.Get(key); ok {
		entry := val.(contributorsCacheEntry)
		if c.fresh(entry.created) {
			return entry.data, nil
		}
		c.contributorsCache.Remove(key)
	}

	contributors, err := c.client.ListContributors(ctx, org, repo)
	if err != nil {
		return contributors, err
	}

	c.contributorsCache.Add(key, contributorsCacheEntry{
		created: c.now(),
		data:    contributors,
	})

	return contributors, nil
}

// Len returns number of cached entries.
func (c *CachedClient) Len() int {
	return c.reposCache.Len() + c.contributorsCache.Len()
}

// Purge drops all cached entries.
func (c *CachedClient) Purge() {
	c.reposCache.Purge()
	c.contributorsCache.Purge()
}

func (c *CachedClient) fresh(created time.Time) bool {
	return created.Add(c.ttl).After(c.now())
}

func (c *CachedClient) reposCacheKey(org string) string {
	return org
}

func (c *CachedClient) contributorsCacheKey(org string, repo string) string {
	return org + "/" + repo
}

type reposCacheEntry struct {
	created time.Time
	data    []app.Repo
}

type contributorsCacheEntry struct {
	created time.Time
	data    []app.Contributor
}
