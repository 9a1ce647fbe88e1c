package app_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/m-zajac/orgcontributors/internal/app"
	"github.com/sirupsen/logrus"
)

// fakeClient serves fixed data. Delays respect ctx cancellation.
type fakeClient struct {
	repos        []app.Repo
	contributors map[string][]app.Contributor
	errs         map[string]error
	delays       map[string]time.Duration

	// reposGate, when set, blocks ListRepos until it's closed.
	reposGate chan struct{}

	m     sync.Mutex
	calls []string
}

func (c *fakeClient) ListRepos(ctx context.Context, org string) ([]app.Repo, error) {
	if c.reposGate != nil {
		<-c.reposGate
	}
	c.record("repos")

	return c.repos, nil
}

func (c *fakeClient) ListContributors(ctx context.Context, org string, repo string) ([]app.Contributor, error) {
	if d := c.delays[repo]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c.record(repo)

	if err := c.errs[repo]; err != nil {
		return nil, err
	}
	return c.contributors[repo], nil
}

func (c *fakeClient) record(call string) {
	c.m.Lock()
	defer c.m.Unlock()

	c.calls = append(c.calls, call)
}

func (c *fakeClient) Calls() []string {
	c.m.Lock()
	defer c.m.Unlock()

	return append([]string(nil), c.calls...)
}

func newTestLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

type update struct {
	result    []app.Contributor
	completed bool
}

// updateRecorder collects updates sent by strategies.
type updateRecorder struct {
	m        sync.Mutex
	updates  []update
	terminal chan struct{}
	once     sync.Once
}

func newUpdateRecorder() *updateRecorder {
	return &updateRecorder{
		terminal: make(chan struct{}),
	}
}

func (r *updateRecorder) OnUpdate(result []app.Contributor, completed bool) {
	r.m.Lock()
	r.updates = append(r.updates, update{result: result, completed: completed})
	r.m.Unlock()

	if completed {
		r.once.Do(func() {
			close(r.terminal)
		})
	}
}

func (r *updateRecorder) Updates() []update {
	r.m.Lock()
	defer r.m.Unlock()

	return append([]update(nil), r.updates...)
}

func (r *updateRecorder) WaitTerminal(timeout time.Duration) bool {
	select {
	case <-r.terminal:
		return true
	case <-time.After(timeout):
		return false
	}
}

// fakeControls records controls toggled by coordinator.
type fakeControls struct {
	m         sync.Mutex
	statuses  [][2]bool
	listeners map[string]func()
	removed   []string
}

func newFakeControls() *fakeControls {
	return &fakeControls{
		listeners: make(map[string]func()),
	}
}

func (c *fakeControls) SetActionsStatus(newLoadingEnabled bool, cancellationEnabled bool) {
	c.m.Lock()
	defer c.m.Unlock()

	c.statuses = append(c.statuses, [2]bool{newLoadingEnabled, cancellationEnabled})
}

func (c *fakeControls) AddCancelListener(jobID string, listener func()) {
	c.m.Lock()
	defer c.m.Unlock()

	c.listeners[jobID] = listener
}

func (c *fakeControls) RemoveCancelListener(jobID string) {
	c.m.Lock()
	defer c.m.Unlock()

	delete(c.listeners, jobID)
	c.removed = append(c.removed, jobID)
}

func (c *fakeControls) ClickCancel(jobID string) {
	c.m.Lock()
	listener := c.listeners[jobID]
	c.m.Unlock()

	if listener != nil {
		listener()
	}
}

func (c *fakeControls) Statuses() [][2]bool {
	c.m.Lock()
	defer c.m.Unlock()

	return append([][2]bool(nil), c.statuses...)
}

func (c *fakeControls) Removed() []string {
	c.m.Lock()
	defer c.m.Unlock()

	return append([]string(nil), c.removed...)
}
