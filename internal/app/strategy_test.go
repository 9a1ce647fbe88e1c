package app_test

import (
	"context"
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/m-zajac/orgcontributors/internal/app"
	"github.com/m-zajac/orgcontributors/internal/app/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariant(t *testing.T) {
	t.Parallel()

	for _, v := range app.Variants() {
		got, err := app.ParseVariant(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	got, err := app.ParseVariant("CHANNELS")
	require.NoError(t, err)
	assert.Equal(t, app.Channels, got)

	_, err = app.ParseVariant("suspend")
	assert.True(t, app.IsInvalidRequestError(err))
}

func TestEngineUnknownVariant(t *testing.T) {
	t.Parallel()

	e := app.NewEngine(&fakeClient{}, newTestLogger())
	_, err := e.Strategy(app.Variant(42))
	assert.True(t, app.IsInvalidRequestError(err))
}

func newManyReposClient() *fakeClient {
	c := &fakeClient{
		contributors: make(map[string][]app.Contributor),
		delays:       make(map[string]time.Duration),
	}
	logins := []string{"ann", "bob", "cid", "dan", "eli"}
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("repo-%d", i)
		c.repos = append(c.repos, app.Repo{ID: int64(i + 1), Name: name})
		for j, login := range logins {
			if (i+j)%3 == 0 {
				continue
			}
			c.contributors[name] = append(c.contributors[name], app.Contributor{
				Login:         login,
				Contributions: i*7 + j + 1,
			})
		}
		c.delays[name] = time.Duration(12-i) * time.Millisecond
	}

	return c
}

// runToTerminal runs strategy and waits for the terminal update.
func runToTerminal(t *testing.T, s app.Strategy, org string) *updateRecorder {
	t.Helper()

	rec := newUpdateRecorder()
	s.Run(context.Background(), app.RequestSpec{Org: org}, rec.OnUpdate)
	require.True(t, rec.WaitTerminal(5*time.Second), "no terminal update")

	return rec
}

func TestStrategiesEquivalence(t *testing.T) {
	t.Parallel()

	var want []app.Contributor
	{
		c := newManyReposClient()
		var all []app.Contributor
		for _, r := range c.repos {
			all = append(all, c.contributors[r.Name]...)
		}
		want = app.Aggregate(all)
	}
	require.NotEmpty(t, want)

	for _, v := range app.Variants() {
		v := v
		t.Run(v.String(), func(t *testing.T) {
			t.Parallel()

			e := app.NewEngine(newManyReposClient(), newTestLogger(), app.WithChannelSize(2))
			s, err := e.Strategy(v)
			require.NoError(t, err)

			rec := runToTerminal(t, s, "org")
			// Give misbehaving strategies a chance to send more.
			time.Sleep(20 * time.Millisecond)

			updates := rec.Updates()
			require.NotEmpty(t, updates)
			last := updates[len(updates)-1]
			assert.True(t, last.completed)
			assert.Equal(t, want, last.result)

			var terminal int
			for _, u := range updates {
				if u.completed {
					terminal++
				}
			}
			assert.Equal(t, 1, terminal)
		})
	}
}

func TestStrategiesScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		client func() *fakeClient
		want   []app.Contributor
	}{
		{
			name: "single repo",
			client: func() *fakeClient {
				return &fakeClient{
					repos: []app.Repo{{ID: 1, Name: "a"}},
					contributors: map[string][]app.Contributor{
						"a": {{Login: "x", Contributions: 3}, {Login: "y", Contributions: 5}},
					},
				}
			},
			want: []app.Contributor{{Login: "y", Contributions: 5}, {Login: "x", Contributions: 3}},
		},
		{
			name: "two repos with shared contributor",
			client: func() *fakeClient {
				return &fakeClient{
					repos: []app.Repo{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}},
					contributors: map[string][]app.Contributor{
						"a": {{Login: "x", Contributions: 2}},
						"b": {{Login: "x", Contributions: 1}, {Login: "y", Contributions: 4}},
					},
				}
			},
			want: []app.Contributor{{Login: "y", Contributions: 4}, {Login: "x", Contributions: 3}},
		},
		{
			name: "no repos",
			client: func() *fakeClient {
				return &fakeClient{}
			},
			want: []app.Contributor{},
		},
		{
			name: "failing repo is skipped",
			client: func() *fakeClient {
				return &fakeClient{
					repos: []app.Repo{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}},
					contributors: map[string][]app.Contributor{
						"a": {{Login: "x", Contributions: 2}},
						"b": {{Login: "x", Contributions: 1}, {Login: "y", Contributions: 4}},
					},
					errs: map[string]error{
						"b": app.TransportError("connection reset"),
					},
				}
			},
			want: []app.Contributor{{Login: "x", Contributions: 2}},
		},
	}
	for _, tt := range tests {
		tt := tt
		for _, v := range app.Variants() {
			v := v
			t.Run(tt.name+"/"+v.String(), func(t *testing.T) {
				t.Parallel()

				s, err := app.NewEngine(tt.client(), newTestLogger()).Strategy(v)
				require.NoError(t, err)

				updates := runToTerminal(t, s, "org").Updates()
				assert.Equal(t, tt.want, updates[len(updates)-1].result)
			})
		}
	}
}

func TestStrategiesDegradedRepos(t *testing.T) {
	t.Parallel()

	for _, v := range app.Variants() {
		v := v
		t.Run(v.String(), func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			client := mock.NewMockGithubClient(ctrl)
			client.EXPECT().
				ListRepos(gomock.Any(), "org").
				Return(nil, app.AuthError("bad credentials"))

			s, err := app.NewEngine(client, newTestLogger()).Strategy(v)
			require.NoError(t, err)

			updates := runToTerminal(t, s, "org").Updates()
			require.Len(t, updates, 1)
			assert.Equal(t, []app.Contributor{}, updates[0].result)
			assert.True(t, updates[0].completed)
		})
	}
}

func TestStrategiesDegradedContributors(t *testing.T) {
	t.Parallel()

	for _, v := range app.Variants() {
		v := v
		t.Run(v.String(), func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			client := mock.NewMockGithubClient(ctrl)
			client.EXPECT().
				ListRepos(gomock.Any(), "org").
				Return([]app.Repo{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, nil)
			client.EXPECT().
				ListContributors(gomock.Any(), "org", "a").
				Return([]app.Contributor{{Login: "x", Contributions: 2}}, nil)
			client.EXPECT().
				ListContributors(gomock.Any(), "org", "b").
				Return(nil, app.TransportError("status 500"))

			s, err := app.NewEngine(client, newTestLogger()).Strategy(v)
			require.NoError(t, err)

			updates := runToTerminal(t, s, "org").Updates()
			assert.Equal(t, []app.Contributor{{Login: "x", Contributions: 2}}, updates[len(updates)-1].result)
		})
	}
}

func TestProgressStrategyReportsEveryRepoInOrder(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		repos: []app.Repo{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}},
		contributors: map[string][]app.Contributor{
			"a": {{Login: "x", Contributions: 1}},
			"b": {{Login: "y", Contributions: 5}},
			"c": {{Login: "x", Contributions: 10}},
		},
		// Later repos answer faster, order must still follow repos list.
		delays: map[string]time.Duration{
			"a": 15 * time.Millisecond,
			"b": 5 * time.Millisecond,
		},
	}
	s, err := app.NewEngine(client, newTestLogger()).Strategy(app.Progress)
	require.NoError(t, err)

	updates := runToTerminal(t, s, "org").Updates()
	require.Len(t, updates, 3)
	assert.Equal(t, []update{
		{result: []app.Contributor{{Login: "x", Contributions: 1}}, completed: false},
		{result: []app.Contributor{{Login: "y", Contributions: 5}, {Login: "x", Contributions: 1}}, completed: false},
		{result: []app.Contributor{{Login: "x", Contributions: 11}, {Login: "y", Contributions: 5}}, completed: true},
	}, updates)
	assert.Equal(t, []string{"repos", "a", "b", "c"}, client.Calls())
}

func TestChannelsStrategyReportsInCompletionOrder(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		repos: []app.Repo{{ID: 1, Name: "slow"}, {ID: 2, Name: "fast"}},
		contributors: map[string][]app.Contributor{
			"slow": {{Login: "s", Contributions: 1}},
			"fast": {{Login: "f", Contributions: 2}},
		},
		delays: map[string]time.Duration{
			"slow": 50 * time.Millisecond,
		},
	}
	s, err := app.NewEngine(client, newTestLogger()).Strategy(app.Channels)
	require.NoError(t, err)

	updates := runToTerminal(t, s, "org").Updates()
	require.Len(t, updates, 2)
	assert.Equal(t, update{
		result:    []app.Contributor{{Login: "f", Contributions: 2}},
		completed: false,
	}, updates[0])
	assert.Equal(t, update{
		result:    []app.Contributor{{Login: "f", Contributions: 2}, {Login: "s", Contributions: 1}},
		completed: true,
	}, updates[1])
}

func TestConcurrentStrategyRunsRequestsConcurrently(t *testing.T) {
	t.Parallel()

	client := newManyReposClient()
	for name := range client.delays {
		client.delays[name] = 100 * time.Millisecond
	}
	s, err := app.NewEngine(client, newTestLogger()).Strategy(app.Concurrent)
	require.NoError(t, err)

	start := time.Now()
	runToTerminal(t, s, "org")
	// 12 requests by 100ms each, serially it would take over a second.
	assert.Less(t, time.Since(start), 600*time.Millisecond)
}

func TestBackgroundStrategyDoesNotBlock(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	client := &fakeClient{
		repos:     []app.Repo{{ID: 1, Name: "a"}},
		reposGate: gate,
	}
	for _, v := range []app.Variant{app.Background, app.Callbacks} {
		s, err := app.NewEngine(client, newTestLogger()).Strategy(v)
		require.NoError(t, err)

		returned := make(chan struct{})
		rec := newUpdateRecorder()
		go func() {
			s.Run(context.Background(), app.RequestSpec{Org: "org"}, rec.OnUpdate)
			close(returned)
		}()

		select {
		case <-returned:
		case <-time.After(time.Second):
			t.Fatalf("%s: Run blocked the caller", v)
		}
		assert.Empty(t, rec.Updates())
	}
	close(gate)
}

// TestStrategiesReleaseGoroutinesOnCancel cancels jobs while the consumer
// is stuck in onUpdate, so Channels producers are blocked on a full channel.
// Not parallel, it compares goroutine counts.
func TestStrategiesReleaseGoroutinesOnCancel(t *testing.T) {
	client := &fakeClient{contributors: make(map[string][]app.Contributor)}
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("repo-%d", i)
		client.repos = append(client.repos, app.Repo{ID: int64(i + 1), Name: name})
		client.contributors[name] = []app.Contributor{{Login: "ann", Contributions: i + 1}}
	}
	e := app.NewEngine(client, newTestLogger(), app.WithChannelSize(2), app.WithMaxConcurrency(4))

	for _, v := range app.Variants() {
		s, err := e.Strategy(v)
		require.NoError(t, err)

		base := runtime.NumGoroutine()
		ctx, cancel := context.WithCancel(context.Background())
		entered := make(chan struct{}, 1)
		onUpdate := func([]app.Contributor, bool) {
			select {
			case entered <- struct{}{}:
			default:
			}
			<-ctx.Done()
		}

		returned := make(chan struct{})
		go func() {
			s.Run(ctx, app.RequestSpec{Org: "org"}, onUpdate)
			close(returned)
		}()

		select {
		case <-entered:
		case <-time.After(5 * time.Second):
			cancel()
			t.Fatalf("%s: no update", v)
		}
		cancel()

		select {
		case <-returned:
		case <-time.After(5 * time.Second):
			t.Fatalf("%s: Run not returned after cancel", v)
		}
		require.Eventually(t, func() bool {
			return runtime.NumGoroutine() <= base
		}, 5*time.Second, 10*time.Millisecond, "%s: goroutines left after cancel", v)
	}
}
