package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsPolicy answers whether robots.txt allows a URL. Rules are fetched
// once per host and cached for the lifetime of the policy. Errors fail open
// and are cached too, so a host whose robots.txt hangs costs at most one
// timeout per crawl.
type RobotsPolicy struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration

	mu    sync.Mutex
	cache map[string]*robotstxt.Group
}

// RobotsOption configures a RobotsPolicy.
type RobotsOption func(*RobotsPolicy)

// WithRobotsTimeout bounds each robots.txt request. Zero disables the limit
// and leaves only the client's own timeout and the caller's context.
func WithRobotsTimeout(d time.Duration) RobotsOption {
	return func(p *RobotsPolicy) {
		p.timeout = d
	}
}

// NewRobotsPolicy creates a policy that fetches robots.txt with client and
// matches rules for userAgent. Requests are bounded by DefaultPageTimeout
// unless WithRobotsTimeout says otherwise.
func NewRobotsPolicy(client *http.Client, userAgent string, opts ...RobotsOption) *RobotsPolicy {
	if client == nil {
		client = &http.Client{}
	}
	p := &RobotsPolicy{
		client:    client,
		userAgent: userAgent,
		timeout:   DefaultPageTimeout,
		cache:     make(map[string]*robotstxt.Group),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Allowed reports whether rawURL may be fetched.
func (p *RobotsPolicy) Allowed(ctx context.Context, rawURL string) bool {
	target, err := url.Parse(rawURL)
	if err != nil || !target.IsAbs() {
		return false
	}

	group, err := p.group(ctx, target)
	if err != nil || group == nil {
		return true
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return group.Test(path)
}

// group returns the cached rule group for the target host, fetching
// robots.txt on first use. The lock is held during the fetch so concurrent
// workers wait for one request instead of issuing their own; the request
// timeout bounds that wait.
func (p *RobotsPolicy) group(ctx context.Context, target *url.URL) (*robotstxt.Group, error) {
	host := strings.ToLower(target.Scheme + "://" + target.Host)

	p.mu.Lock()
	defer p.mu.Unlock()

	if group, ok := p.cache[host]; ok {
		return group, nil
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.cache[host] = nil
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		p.cache[host] = nil
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	group := data.FindGroup(p.userAgent)
	p.cache[host] = group
	return group, nil
}
