// Package checkers holds health.Check implementations for outbound dependencies.
package checkers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// UpstreamChecker verifies that an upstream HTTP service answers at all.
// Any response below 500 counts as reachable, since the probe is
// unauthenticated and most APIs reject it with a 4xx.
type UpstreamChecker struct {
	name   string
	url    string
	method string
	client *http.Client
}

// NewUpstreamChecker probes url with a HEAD request. An empty name defaults to the URL.
func NewUpstreamChecker(name, url string) *UpstreamChecker {
	return NewUpstreamCheckerWithClient(name, url, &http.Client{Timeout: 10 * time.Second})
}

// NewUpstreamCheckerWithClient is NewUpstreamChecker with a caller supplied client.
func NewUpstreamCheckerWithClient(name, url string, client *http.Client) *UpstreamChecker {
	if name == "" {
		name = url
	}
	return &UpstreamChecker{name: name, url: url, method: http.MethodHead, client: client}
}

// Name returns the name of this health check.
func (u *UpstreamChecker) Name() string {
	return u.name
}

// Check sends the probe request and fails on transport errors or 5xx.
func (u *UpstreamChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, u.method, u.url, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", u.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("probe %s: status %d", u.name, resp.StatusCode)
	}
	return nil
}
