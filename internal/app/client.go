package app

import (
	"context"

	"github.com/sirupsen/logrus"
)

// GithubClient lists organization repositories and their contributors.
// Implementations must be safe for concurrent use.
type GithubClient interface {
	ListRepos(ctx context.Context, org string) ([]Repo, error)
	ListContributors(ctx context.Context, org string, repo string) ([]Contributor, error)
}

// ClientFactory returns github client using given credentials.
type ClientFactory func(Credentials) GithubClient

// Observer is notified about job lifecycle and degraded fetches.
type Observer interface {
	JobStarted(v Variant)
	JobFinished(v Variant, s Status)
	FetchDegraded(call string)
}

type nopObserver struct{}

func (nopObserver) JobStarted(Variant)          {}
func (nopObserver) JobFinished(Variant, Status) {}
func (nopObserver) FetchDegraded(string)        {}

const (
	callListRepos        = "list_repos"
	callListContributors = "list_contributors"
)

// fetcher wraps GithubClient and never fails: errors are logged and replaced
// with empty lists, so the caller always gets a (possibly partial) result.
type fetcher struct {
	client   GithubClient
	observer Observer
	l        logrus.FieldLogger
}

func (f *fetcher) repos(ctx context.Context, org string) []Repo {
	repos, err := f.client.ListRepos(ctx, org)
	if err != nil {
		f.degraded(ctx, callListRepos, err, logrus.Fields{"org": org})
		return []Repo{}
	}
	f.l.WithField("org", org).Infof("%s: loaded %d repos", org, len(repos))

	return repos
}

func (f *fetcher) contributors(ctx context.Context, org string, repo Repo) []Contributor {
	contributors, err := f.client.ListContributors(ctx, org, repo.Name)
	if err != nil {
		f.degraded(ctx, callListContributors, err, logrus.Fields{"org": org, "repo": repo.Name})
		return []Contributor{}
	}
	f.l.WithField("org", org).Infof("%s: loaded %d contributors", repo.Name, len(contributors))

	return contributors
}

func (f *fetcher) degraded(ctx context.Context, call string, err error, fields logrus.Fields) {
	l := f.l.WithFields(fields).WithError(err)
	if ctx.Err() != nil {
		l.Debugf("%s aborted, job canceled", call)
		return
	}

	f.observer.FetchDegraded(call)
	switch {
	case IsAuthError(err):
		l.Warnf("%s rejected credentials, using empty list", call)
	case IsTransportError(err):
		l.Warnf("%s failed, using empty list", call)
	default:
		l.Errorf("%s returned unexpected error, using empty list", call)
	}
}
