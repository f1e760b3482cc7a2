package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent identifies the crawler to the wiki site.
	DefaultUserAgent = "wikigrab/1.0 (+https://github.com/nao1215/wikigrab)"

	// DefaultPageTimeout bounds a single page fetch.
	DefaultPageTimeout = 30 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024
)

// ErrUnexpectedStatus is returned for any non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Response is a fetched page with its body decoded to UTF-8.
type Response struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status code.
	StatusCode int

	// ContentType is the Content-Type response header.
	ContentType string

	// Body is the response body, truncated to the fetcher's limit.
	Body []byte
}

// Fetcher performs page GETs for the spider.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	pageTimeout time.Duration
	maxBodySize int64
	limiter     *rate.Limiter
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithPageTimeout bounds each fetch. Zero disables the per-page limit.
func WithPageTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.pageTimeout = d
	}
}

// WithMaxBodySize sets how many bytes of a body are read.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithRateLimit limits all fetches made through this Fetcher to rps requests
// per second. Zero or less means unlimited.
func WithRateLimit(rps float64) FetcherOption {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewFetcher creates a Fetcher. A nil client selects a default client without
// a proxy.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	f := &Fetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		pageTimeout: DefaultPageTimeout,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Client returns the underlying HTTP client.
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// UserAgent returns the User-Agent sent with every request.
func (f *Fetcher) UserAgent() string {
	return f.userAgent
}

// Fetch GETs pageURL. Non-2xx responses return a Response together with an
// error wrapping ErrUnexpectedStatus.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Response, error) {
	if f.pageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.pageTimeout)
		defer cancel()
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &Response{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return result, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return result, fmt.Errorf("failed to read body: %w", err)
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(raw), result.ContentType)
	if err != nil {
		// Unknown charset: keep the raw bytes.
		result.Body = raw
		return result, nil
	}
	decoded, err := io.ReadAll(utf8Reader)
	if err != nil {
		return result, fmt.Errorf("failed to decode body: %w", err)
	}
	result.Body = decoded
	return result, nil
}
