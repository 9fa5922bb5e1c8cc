// Package github provides the REST client and URL parsing for the GitHub
// data the analysis pipeline consumes.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/abhigyan2003/github-repo-ai-agent/internal/resilience"
)

const (
	// DefaultBaseURL is the public GitHub REST API endpoint.
	DefaultBaseURL = "https://api.github.com"

	acceptHeader   = "application/vnd.github+json"
	userAgent      = "GitHub-Repo-Agent/1.0"
	requestTimeout = 20 * time.Second

	// listPageSize bounds every listing fetch to a single page.
	listPageSize = "100"
)

// ErrReadmeNotFound is returned when neither readme endpoint yields content.
var ErrReadmeNotFound = fmt.Errorf("github: readme not found")

// RequestError reports a non-2xx response from the API. Pipeline stages
// treat it as a signal to degrade the affected data source to defaults.
type RequestError struct {
	StatusCode int
	Method     string
	URL        string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("github: %s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// Metrics records outbound API call outcomes.
type Metrics interface {
	IncrementForgeCalls()
	RecordExternalAPIRequest(apiName string, success bool)
}

// Client is a goroutine-safe GitHub REST client shared across analyses.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig resilience.RetryConfig
	breaker     *resilience.CircuitBreaker
	metrics     Metrics
}

// NewClient creates a client against the public API. An empty token means
// unauthenticated access, subject to GitHub's anonymous rate limits.
func NewClient(token string) *Client {
	return NewClientWithBase(token, DefaultBaseURL)
}

// NewClientWithBase creates a client against a custom API base URL.
func NewClientWithBase(token, baseURL string) *Client {
	transport := &http.Transport{
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: requestTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	httpClient := &http.Client{Timeout: requestTimeout, Transport: transport}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		base := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(base, ts)
		httpClient.Timeout = requestTimeout
	}

	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  httpClient,
		retryConfig: resilience.DefaultRetryConfig(),
		breaker:     resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{}),
	}
}

// SetMetrics attaches a metrics recorder to the client.
func (c *Client) SetMetrics(m Metrics) {
	c.metrics = m
}

// GetJSON performs a GET against path and decodes the response into out.
// Transient failures (429, 5xx, network) are retried with backoff before
// the error is returned. A circuit breaker sits in front of the retries:
// it opens on repeated infrastructure failures, not on plain 4xx
// lookups, so an absent README never poisons later analyses.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var resp *http.Response
	err := c.breaker.Call(func() error {
		var callErr error
		resp, callErr = resilience.RetryHTTP(ctx, c.retryConfig, func() (*http.Response, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Accept", acceptHeader)
			req.Header.Set("User-Agent", userAgent)
			return c.httpClient.Do(req)
		})
		return callErr
	})
	if err != nil {
		var cbErr *resilience.CircuitBreakerError
		if errors.As(err, &cbErr) {
			return fmt.Errorf("github: GET %s: %w", u, err)
		}
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			c.recordCall(false)
			return &RequestError{StatusCode: resp.StatusCode, Method: http.MethodGet, URL: u}
		}
		c.recordCall(false)
		return fmt.Errorf("github: GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		c.recordCall(false)
		return &RequestError{StatusCode: resp.StatusCode, Method: http.MethodGet, URL: u}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.recordCall(false)
			return fmt.Errorf("github: decode %s: %w", path, err)
		}
	}

	c.recordCall(true)
	return nil
}

// Repo fetches the repository metadata record.
func (c *Client) Repo(ctx context.Context, owner, name string) (*Repo, error) {
	var repo Repo
	path := fmt.Sprintf("/repos/%s/%s", owner, name)
	if err := c.GetJSON(ctx, path, nil, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// Readme fetches and decodes the repository README. The dedicated readme
// endpoint is preferred; a direct README.md content lookup is the fallback
// for repositories where the preferred route fails.
func (c *Client) Readme(ctx context.Context, owner, name string) (string, error) {
	paths := []string{
		fmt.Sprintf("/repos/%s/%s/readme", owner, name),
		fmt.Sprintf("/repos/%s/%s/contents/README.md", owner, name),
	}

	lastErr := error(ErrReadmeNotFound)
	for _, path := range paths {
		var fc fileContent
		if err := c.GetJSON(ctx, path, nil, &fc); err != nil {
			lastErr = err
			continue
		}
		if fc.Content == "" {
			lastErr = ErrReadmeNotFound
			continue
		}

		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(fc.Content, "\n", ""))
		if err != nil {
			slog.Debug("github: readme decode failed", "path", path, "err", err)
			lastErr = err
			continue
		}
		return string(decoded), nil
	}

	return "", lastErr
}

// Contributors fetches the repository contributors listing.
func (c *Client) Contributors(ctx context.Context, owner, name string) ([]Contributor, error) {
	var contributors []Contributor
	path := fmt.Sprintf("/repos/%s/%s/contributors", owner, name)
	if err := c.GetJSON(ctx, path, nil, &contributors); err != nil {
		return nil, err
	}
	return contributors, nil
}

// Commits fetches up to one page of the most recent commits.
func (c *Client) Commits(ctx context.Context, owner, name string) ([]Commit, error) {
	var commits []Commit
	path := fmt.Sprintf("/repos/%s/%s/commits", owner, name)
	params := url.Values{"per_page": {listPageSize}}
	if err := c.GetJSON(ctx, path, params, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// PullRequests fetches up to one page of pull requests in the given state
// ("open", "closed", or "all").
func (c *Client) PullRequests(ctx context.Context, owner, name, state string) ([]PullRequest, error) {
	var prs []PullRequest
	path := fmt.Sprintf("/repos/%s/%s/pulls", owner, name)
	params := url.Values{"state": {state}, "per_page": {listPageSize}}
	if err := c.GetJSON(ctx, path, params, &prs); err != nil {
		return nil, err
	}
	return prs, nil
}

// Issues fetches up to one page of issues in the given state. The listing
// includes pull requests; callers filter with Issue.IsPullRequest.
func (c *Client) Issues(ctx context.Context, owner, name, state string) ([]Issue, error) {
	var issues []Issue
	path := fmt.Sprintf("/repos/%s/%s/issues", owner, name)
	params := url.Values{"state": {state}, "per_page": {listPageSize}}
	if err := c.GetJSON(ctx, path, params, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (c *Client) recordCall(success bool) {
	if c.metrics == nil {
		return
	}
	c.metrics.IncrementForgeCalls()
	c.metrics.RecordExternalAPIRequest("github", success)
}
