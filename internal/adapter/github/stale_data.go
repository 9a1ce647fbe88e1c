package github

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/m-zajac/orgcontributors/internal/app"
	"github.com/sirupsen/logrus"
)

const (
	reposKeyPrefix        = "rp/"
	contributorsKeyPrefix = "ct/"
)

// KVStore provides simple kv data storage
type KVStore interface {
	ReadKey(key []byte) ([]byte, error)
	UpdateKey(key []byte, data []byte) error
	ForEach(prefix []byte, fn func(key []byte, data []byte) error) error
	DeleteKeys(keys [][]byte) error
}

// ClientWithStaleData wraps GithubClient and returns data saved in db if possible.
//
// If data is not available (or datas ttl is exceeded), client is called synchronously and the result is stored.
// If data is available, ttl is ok, but refreshTTL is exceeded, a job for update is scheduled. Existing data is returned immediately.
// If data is available and no ttl is exceeded, then data is returned immediately.
type ClientWithStaleData struct {
	client        app.GithubClient
	store         KVStore
	ttl           time.Duration
	refreshTTL    time.Duration
	purgeInterval time.Duration
	l             logrus.FieldLogger
	now           func() time.Time

	refreshes chan refreshRequest

	// Chan for controlling scheduler - only used for unit testing.
	schedulerPendingOps chan int

	// Func for canceling internal worker loop
	stop func()
}

var _ app.GithubClient = &ClientWithStaleData{}

// NewClientWithStaleData creates new ClientWithStaleData instance.
func NewClientWithStaleData(
	client app.GithubClient,
	store KVStore,
	ttl time.Duration,
	refreshTTL time.Duration,
	l logrus.FieldLogger,
) (*ClientWithStaleData, error) {
	if ttl < refreshTTL {
		return nil, fmt.Errorf("ttl (%v) cannot be lower than refresh ttl (%v)", ttl, refreshTTL)
	}

	c := ClientWithStaleData{
		client:        client,
		store:         store,
		ttl:           ttl,
		refreshTTL:    refreshTTL,
		purgeInterval: ttl,
		l:             l,
		now:           time.Now,
		refreshes:     make(chan refreshRequest, 1000),
	}

	return &c, nil
}

// RunScheduler runs internal scheduling goroutine.
// Doesn't block.
func (c *ClientWithStaleData) RunScheduler() {
	ctx, cancel := context.WithCancel(context.Background())
	c.stop = cancel

	var purge <-chan time.Time
	if c.purgeInterval > 0 {
		ticker := time.NewTicker(c.purgeInterval)
		purge = ticker.C
		go func() {
			<-ctx.Done()
			ticker.Stop()
		}()
	}

	go func() {
		pending := make(map[string]bool)
		done := make(chan string)

		for {
			// This is intended for blocking scheduler for unit testing.
			// In standard execution this is always nil.
			if c.schedulerPendingOps != nil {
				c.schedulerPendingOps <- len(pending)
			}

			select {
			case req := <-c.refreshes:
				key := string(req.key())
				if pending[key] {
					continue
				}
				pending[key] = true

				go func(req refreshRequest) {
					c.l.Infof("ClientWithStaleData: scheduled update for %s...", req)
					if _, err := c.refresh(ctx, req); err != nil {
						c.l.Errorf("ClientWithStaleData scheduler: updating %s: %v", req, err)
					} else {
						c.l.Infof("ClientWithStaleData: scheduled update for %s done", req)
					}
					select {
					case done <- string(req.key()):
					case <-ctx.Done():
					}
				}(req)
			case key := <-done:
				delete(pending, key)
			case <-purge:
				n, err := c.Purge()
				if err != nil {
					c.l.Errorf("ClientWithStaleData scheduler: purging expired data: %v", err)
				} else if n > 0 {
					c.l.Infof("ClientWithStaleData: purged %d expired entries", n)
				}

			// Finish
			case <-ctx.Done():
				return
			}
		}
	}()
}

// ListRepos returns repositories of given organization.
//
// Returns data from db if available.
func (c *ClientWithStaleData) ListRepos(ctx context.Context, org string) ([]app.Repo, error) {
	req := refreshRequest{org: org}
	var entry reposDBEntry
	if c.load(req, &entry.dbEntryHeader, &entry) {
		return entry.Data, nil
	}

	data, err := c.refresh(ctx, req)
	if err != nil {
		return nil, err
	}

	return data.([]app.Repo), nil
}

// ListContributors returns contributors of given repository.
//
// Returns data from db if available.
func (c *ClientWithStaleData) ListContributors(ctx context.Context, org string, repo string) ([]app.Contributor, error) {
	req := refreshRequest{org: org, repo: repo}
	var entry contributorsDBEntry
	if c.load(req, &entry.dbEntryHeader, &entry) {
		return entry.Data, nil
	}

	data, err := c.refresh(ctx, req)
	if err != nil {
		return nil, err
	}

	return data.([]app.Contributor), nil
}

// Purge deletes entries older than ttl. Returns number of deleted entries.
func (c *ClientWithStaleData) Purge() (int, error) {
	var expired [][]byte
	for _, prefix := range []string{reposKeyPrefix, contributorsKeyPrefix} {
		err := c.store.ForEach([]byte(prefix), func(key []byte, data []byte) error {
			var header dbEntryHeader
			if err := json.Unmarshal(data, &header); err != nil || !c.fresh(header) {
				expired = append(expired, bytes.Clone(key))
			}
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("scanning %s entries: %w", prefix, err)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}
	if err := c.store.DeleteKeys(expired); err != nil {
		return 0, fmt.Errorf("deleting expired entries: %w", err)
	}

	return len(expired), nil
}

// Close cleanups scheduler.
func (c *ClientWithStaleData) Close() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}

// load reads stored entry into dst. Returns true if the entry can be served.
func (c *ClientWithStaleData) load(req refreshRequest, header *dbEntryHeader, dst interface{}) bool {
	data, err := c.store.ReadKey(req.key())
	if err != nil {
		c.l.Warnf("ClientWithStaleData: reading %s: %v", req, err)
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.l.Warnf("ClientWithStaleData: unserializing %s: %v", req, err)
		return false
	}
	if !c.fresh(*header) {
		return false
	}
	if c.now().Sub(time.UnixMilli(header.Created)) >= c.refreshTTL {
		c.schedule(req)
	}

	return true
}

func (c *ClientWithStaleData) schedule(req refreshRequest) {
	select {
	case c.refreshes <- req:
	default:
		c.l.Warnf("ClientWithStaleData: no free slots left, skipping update for %s", req)
	}
}

// refresh calls client and saves the result.
// Failing save is only logged, fetched data is returned anyway.
func (c *ClientWithStaleData) refresh(ctx context.Context, req refreshRequest) (interface{}, error) {
	header := dbEntryHeader{Created: c.now().UnixMilli()}
	var (
		data  interface{}
		entry interface{}
	)
	if req.repo == "" {
		repos, err := c.client.ListRepos(ctx, req.org)
		if err != nil {
			return nil, err
		}
		data = repos
		entry = reposDBEntry{dbEntryHeader: header, Data: repos}
	} else {
		contributors, err := c.client.ListContributors(ctx, req.org, req.repo)
		if err != nil {
			return nil, err
		}
		data = contributors
		entry = contributorsDBEntry{dbEntryHeader: header, Data: contributors}
	}

	if err := c.save(req.key(), entry); err != nil {
		c.l.Errorf("ClientWithStaleData: saving %s: %v", req, err)
	}

	return data, nil
}

func (c *ClientWithStaleData) save(key []byte, entry interface{}) error {
	dbdata, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("serializing data for save: %w", err)
	}

	return c.store.UpdateKey(key, dbdata)
}

func (c *ClientWithStaleData) fresh(h dbEntryHeader) bool {
	return c.now().Sub(time.UnixMilli(h.Created)) < c.ttl
}

type dbEntryHeader struct {
	Created int64
}

type reposDBEntry struct {
	dbEntryHeader
	Data []app.Repo
}

type contributorsDBEntry struct {
	dbEntryHeader
	Data []app.Contributor
}

type refreshRequest struct {
	org  string
	repo string
}

func (r refreshRequest) key() []byte {
	if r.repo == "" {
		return []byte(reposKeyPrefix + r.org)
	}
	return []byte(contributorsKeyPrefix + r.org + "/" + r.repo)
}

func (r refreshRequest) String() string {
	if r.repo == "" {
		return r.org + " repos"
	}
	return r.org + "/" + r.repo + " contributors"
}
