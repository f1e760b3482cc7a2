package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestFetcher tests page fetching.
func TestFetcher(t *testing.T) {
	t.Parallel()

	t.Run("sends user agent and returns body", func(t *testing.T) {
		t.Parallel()

		gotUA := make(chan string, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA <- r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<p>hello</p>"))
		}))
		defer server.Close()

		f := NewFetcher(server.Client(), WithUserAgent("test-agent/1.0"))
		resp, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if ua := <-gotUA; ua != "test-agent/1.0" {
			t.Errorf("User-Agent = %q", ua)
		}
		if resp.StatusCode != http.StatusOK || string(resp.Body) != "<p>hello</p>" {
			t.Errorf("unexpected response: %d %q", resp.StatusCode, resp.Body)
		}
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		resp, err := NewFetcher(server.Client()).Fetch(context.Background(), server.URL)
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Fatalf("Fetch() error = %v, expected ErrUnexpectedStatus", err)
		}
		if resp == nil || resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected a response carrying status 404, got %+v", resp)
		}
	})

	t.Run("decodes legacy charset", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte{'c', 'a', 'f', 0xe9})
		}))
		defer server.Close()

		resp, err := NewFetcher(server.Client()).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if string(resp.Body) != "café" {
			t.Errorf("Body = %q, expected UTF-8 %q", resp.Body, "café")
		}
	})

	t.Run("limits body size", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
		}))
		defer server.Close()

		resp, err := NewFetcher(server.Client(), WithMaxBodySize(10)).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if len(resp.Body) != 10 {
			t.Errorf("len(Body) = %d, expected 10", len(resp.Body))
		}
	})

	t.Run("page timeout", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		}))
		defer server.Close()

		f := NewFetcher(server.Client(), WithPageTimeout(50*time.Millisecond))
		start := time.Now()
		if _, err := f.Fetch(context.Background(), server.URL); err == nil {
			t.Fatal("expected timeout error")
		}
		if elapsed := time.Since(start); elapsed > 3*time.Second {
			t.Errorf("fetch took %v, page timeout not applied", elapsed)
		}
	})

	t.Run("rate limit honours context", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
		defer server.Close()

		f := NewFetcher(server.Client(), WithRateLimit(0.01))
		if _, err := f.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("first Fetch() error = %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if _, err := f.Fetch(ctx, server.URL); err == nil {
			t.Error("second fetch should fail waiting for the limiter")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		f := NewFetcher(nil)
		if f.Client() == nil {
			t.Error("nil client should be replaced")
		}
		if f.UserAgent() != DefaultUserAgent {
			t.Errorf("UserAgent() = %q", f.UserAgent())
		}
	})
}

// TestNewHTTPClient tests client construction.
func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	t.Run("invalid proxy address", func(t *testing.T) {
		t.Parallel()

		for _, addr := range []string{"localhost", ":9050", "host:0", "host:99999", "host:abc"} {
			if _, err := NewHTTPClient(WithProxy(addr)); !errors.Is(err, ErrInvalidProxyAddress) {
				t.Errorf("NewHTTPClient(WithProxy(%q)) error = %v, expected ErrInvalidProxyAddress", addr, err)
			}
		}
	})

	t.Run("valid proxy address", func(t *testing.T) {
		t.Parallel()

		client, err := NewHTTPClient(WithProxy("127.0.0.1:9050"), WithClientTimeout(time.Second))
		if err != nil {
			t.Fatalf("NewHTTPClient() error = %v", err)
		}
		if client.Timeout != time.Second {
			t.Errorf("Timeout = %v", client.Timeout)
		}
	})

	t.Run("injects headers", func(t *testing.T) {
		t.Parallel()

		got := make(chan string, 1)
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			got <- r.Header.Get("X-Test")
		}))
		defer server.Close()

		client, err := NewHTTPClient(WithHeader("X-Test", "yes"))
		if err != nil {
			t.Fatalf("NewHTTPClient() error = %v", err)
		}
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		resp.Body.Close()
		if header := <-got; header != "yes" {
			t.Errorf("X-Test = %q, expected %q", header, "yes")
		}
	})
}
