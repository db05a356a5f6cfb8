// Copyright 2026 by the Isaac Physics authors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultURL is the GitHub REST API endpoint.
const DefaultURL = "https://api.github.com"

// Client reads release tags and CI results from GitHub repositories of a
// single owner.
type Client struct {
	baseURL  string
	owner    string
	token    string
	http     *http.Client
	limiter  *rate.Limiter
	clock    clock.Clock
	attempts int
	delay    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API endpoint, such as for GitHub Enterprise.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithToken authenticates requests, raising GitHub's rate limits.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient sets the HTTP client to use.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetries sets the number of attempts and the initial delay between
// attempts for transient failures.
func WithRetries(attempts int, delay time.Duration, clk clock.Clock) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
		c.clock = clk
	}
}

// WithRateLimit limits the requests per second.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(limit, burst) }
}

// New returns a Client for the repositories of the specified owner.
func New(owner string, opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultURL,
		owner:    owner,
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(250*time.Millisecond), 4),
		clock:    clock.WallClock,
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tag is a git tag of a repository.
type Tag struct {
	Name string `json:"name"`
}

// WorkflowRun is a single run of a CI workflow.
type WorkflowRun struct {
	Conclusion string    `json:"conclusion"`
	Status     string    `json:"status"`
	HTMLURL    string    `json:"html_url"`
	HeadBranch string    `json:"head_branch"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ErrMalformedResponse reports a response body that isn't the expected JSON.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError reports a non-successful HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s %s",
		e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// transient returns true for errors worth trying again.
func transient(err error) bool {
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var serr *StatusError
	if !errors.As(err, &serr) {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return serr.StatusCode == http.StatusTooManyRequests || serr.StatusCode >= 500
}

// LatestTag returns the name of the most recent tag of the repository.
func (c *Client) LatestTag(ctx context.Context, repo string) (string, error) {
	var tags []Tag
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/tags", c.owner, repo), nil, &tags); err != nil {
		return "", fmt.Errorf("cannot fetch tags of %s, reason: %w", repo, err)
	}
	if len(tags) == 0 {
		return "", fmt.Errorf("repository %s has no tags", repo)
	}
	return tags[0].Name, nil
}

// LatestWorkflowRun returns the most recent run of the workflow on the
// specified branch.
func (c *Client) LatestWorkflowRun(ctx context.Context, repo, workflow, branch string) (*WorkflowRun, error) {
	var runs struct {
		WorkflowRuns []WorkflowRun `json:"workflow_runs"`
	}
	err := c.get(ctx,
		fmt.Sprintf("/repos/%s/%s/actions/workflows/%s/runs", c.owner, repo, workflow),
		url.Values{"branch": []string{branch}},
		&runs)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch %s runs of %s, reason: %w", workflow, repo, err)
	}
	if len(runs.WorkflowRuns) == 0 {
		return nil, fmt.Errorf("no %s runs of %s on branch %q", workflow, repo, branch)
	}
	return &runs.WorkflowRuns[0], nil
}

// get the JSON resource at the path, decoding it into result. Transient
// failures are retried.
func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var lastErr error
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			return c.fetch(ctx, u, result)
		},
		IsFatalError: func(err error) bool {
			return !transient(err)
		},
		NotifyFunc: func(err error, attempt int) {
			log.Debug(fmt.Sprintf("   🐙  attempt %d: %s", attempt, err.Error()))
			lastErr = err
		},
		Attempts:    c.attempts,
		Delay:       c.delay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       c.clock,
		Stop:        ctx.Done(),
	})
	if retry.IsAttemptsExceeded(err) {
		return lastErr
	}
	return err
}

func (c *Client) fetch(ctx context.Context, u string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	log.Debug(fmt.Sprintf("   🐙  GET %s", u))
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var msg struct {
			Message string `json:"message"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(body, &msg)
		return &StatusError{URL: u, StatusCode: resp.StatusCode, Message: msg.Message}
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w from %s, reason: %w", ErrMalformedResponse, u, err)
	}
	return nil
}
