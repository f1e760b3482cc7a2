package crawler

import (
	"strings"
	"sync"
)

// Frontier is the shared work queue of a crawl together with its visited set.
// All methods are safe for concurrent use.
//
// A URL is identified by its fragment-free form, so "page#a" and "page#b"
// are the same entry. The visited set only grows.
type Frontier struct {
	mu      sync.Mutex
	queue   []string
	queued  map[string]struct{}
	visited map[string]struct{}
}

// NewFrontier returns an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		queue:   make([]string, 0),
		queued:  make(map[string]struct{}),
		visited: make(map[string]struct{}),
	}
}

// Push appends rawURL unless it was already visited or is already waiting.
// It reports whether the URL was added.
func (f *Frontier) Push(rawURL string) bool {
	key := StripFragment(rawURL)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[key]; ok {
		return false
	}
	if _, ok := f.queued[key]; ok {
		return false
	}
	f.queued[key] = struct{}{}
	f.queue = append(f.queue, key)
	return true
}

// Dequeue pops queued URLs until it finds one that was not visited, marks
// it visited and returns it. Already visited entries are discarded. When
// limit is positive and the visited set already holds limit URLs, nothing is
// dequeued, so every visited URL is one that was handed out.
func (f *Frontier) Dequeue(limit int) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if limit > 0 && len(f.visited) >= limit {
		return "", false
	}
	for len(f.queue) > 0 {
		next := f.queue[0]
		f.queue[0] = ""
		f.queue = f.queue[1:]
		delete(f.queued, next)
		if _, ok := f.visited[next]; ok {
			continue
		}
		f.visited[next] = struct{}{}
		return next, true
	}
	return "", false
}

// IsVisited reports whether rawURL has been marked visited.
func (f *Frontier) IsVisited(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visited[StripFragment(rawURL)]
	return ok
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// VisitedCount returns the size of the visited set. For a frontier drained
// with Dequeue this is the number of URLs handed out.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// StripFragment removes the "#fragment" part of a URL, if any.
// The rest of the string is returned untouched.
func StripFragment(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
