package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/m-zajac/orgcontributors/internal/app"
)

// HTTPDoer can execute http request.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// errAccepted is returned for status 202 - github is still preparing data.
var errAccepted = errors.New("status 202")

// Client lists github organization repositories and their contributors.
// This struct is an adapter for app.GithubClient.
//go:generate mockgen -destination ../../app/mock/githubclient.go -package mock github.com/m-zajac/orgcontributors/internal/app GithubClient
type Client struct {
	doer        HTTPDoer
	address     string
	credentials app.Credentials

	perPage              int
	maxPages             int
	acceptWaitTime       time.Duration
	numRetriesOnAccepted uint
	responseMaxSize      int
}

var _ app.GithubClient = &Client{}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithPageSize sets number of items requested per page (max 100).
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 && n <= 100 {
			c.perPage = n
		}
	}
}

// WithMaxPages limits number of pages fetched for a single list.
func WithMaxPages(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// NewClient creates new github client.
// Credentials are optional: with username set basic auth is used,
// with token only - token auth.
func NewClient(doer HTTPDoer, address string, credentials app.Credentials, opts ...ClientOption) *Client {
	c := Client{
		doer:        doer,
		address:     address,
		credentials: credentials,

		perPage:              100,
		maxPages:             10,
		acceptWaitTime:       5 * time.Second,
		numRetriesOnAccepted: 7,
		responseMaxSize:      1024 * 1024 * 10,
	}
	for _, opt := range opts {
		opt(&c)
	}

	return &c
}

// ListRepos returns repositories of given organization.
func (c *Client) ListRepos(ctx context.Context, org string) ([]app.Repo, error) {
	if org == "" {
		return nil, app.InvalidRequestError("organization cannot be empty")
	}

	path := fmt.Sprintf("/orgs/%s/repos", url.PathEscape(org))
	var repos []app.Repo
	err := c.paginate(ctx, path, func(body []byte) (int, error) {
		var resp reposResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return 0, app.TransportError(fmt.Sprintf("unmarshalling repos response: %v", err))
		}
		repos = append(repos, resp.ToRepos()...)
		return len(resp), nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s repos: %w", org, err)
	}
	if repos == nil {
		repos = []app.Repo{}
	}

	return repos, nil
}

// ListContributors returns contributors of given repository.
func (c *Client) ListContributors(ctx context.Context, org string, repo string) ([]app.Contributor, error) {
	if org == "" {
		return nil, app.InvalidRequestError("organization cannot be empty")
	}
	if repo == "" {
		return nil, app.InvalidRequestError("repository name cannot be empty")
	}

	path := fmt.Sprintf("/repos/%s/%s/contributors", url.PathEscape(org), url.PathEscape(repo))
	var contributors []app.Contributor
	err := c.paginate(ctx, path, func(body []byte) (int, error) {
		var resp contributorsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return 0, app.TransportError(fmt.Sprintf("unmarshalling contributors response: %v", err))
		}
		contributors = append(contributors, resp.ToContributors()...)
		return len(resp), nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s/%s contributors: %w", org, repo, err)
	}
	if contributors == nil {
		contributors = []app.Contributor{}
	}

	return contributors, nil
}

// paginate fetches pages until a short page is returned or maxPages is reached.
// handlePage returns the number of items found on the page.
func (c *Client) paginate(ctx context.Context, path string, handlePage func([]byte) (int, error)) error {
	for page := 1; page <= c.maxPages; page++ {
		u, err := url.Parse(c.address + path)
		if err != nil {
			return fmt.Errorf("invalid url: %w", err)
		}
		v := make(url.Values)
		v.Set("per_page", strconv.Itoa(c.perPage))
		v.Set("page", strconv.Itoa(page))
		u.RawQuery = v.Encode()

		body, err := c.getWithRetry(ctx, u.String())
		if err != nil {
			return err
		}
		if body == nil {
			return nil
		}

		n, err := handlePage(body)
		if err != nil {
			return err
		}
		if n < c.perPage {
			return nil
		}
	}

	return nil
}

// getWithRetry makes GET request.
// Github returns status 202 when processing data, request is then retried
// after a while. Returns nil body for status 204.
func (c *Client) getWithRetry(ctx context.Context, u string) ([]byte, error) {
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		b, code, err := c.makeRequest(ctx, u)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if code == http.StatusAccepted {
			return nil, errAccepted
		}
		return b, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.acceptWaitTime)),
		backoff.WithMaxTries(c.numRetriesOnAccepted),
	)
	if errors.Is(err, errAccepted) {
		return nil, app.TransportError("too many retries with status 202")
	}
	if err != nil {
		return nil, err
	}

	return body, nil
}

func (c *Client) makeRequest(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating http request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if auth := c.authorization(); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, app.TransportError(fmt.Sprintf("doing http request: %v", err))
	}
	// Always drain body before close to allow connection reuse.
	// See: http://tleyden.github.io/blog/2016/11/21/tuning-the-go-http-client-library-for-load-testing/
	defer func() {
		_, _ = io.CopyN(io.Discard, resp.Body, 1024)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, resp.StatusCode, nil
	case resp.StatusCode == http.StatusAccepted:
		return nil, resp.StatusCode, nil
	case resp.StatusCode/100 > 3 && c.checkRateLimitExceeded(&resp.Header):
		return nil, resp.StatusCode, app.TransportError("rate limit exceeded")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, resp.StatusCode, app.AuthError(fmt.Sprintf("credentials rejected with status %d", resp.StatusCode))
	case resp.StatusCode/100 > 3:
		return nil, resp.StatusCode, app.TransportError(fmt.Sprintf("got invalid http status code: %d", resp.StatusCode))
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, int64(c.responseMaxSize)))
	if err != nil {
		return nil, resp.StatusCode, app.TransportError(fmt.Sprintf("reading http response body: %v", err))
	}

	return b, resp.StatusCode, nil
}

func (c *Client) authorization() string {
	switch {
	case c.credentials.Username != "":
		raw := c.credentials.Username + ":" + c.credentials.Token
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
	case c.credentials.Token != "":
		return "token " + c.credentials.Token
	default:
		return ""
	}
}

func (c *Client) checkRateLimitExceeded(h *http.Header) bool {
	if s := h.Get("X-RateLimit-Remaining"); s != "" {
		if limit, err := strconv.Atoi(s); err == nil && limit == 0 {
			return true
		}
	}
	return false
}
