package model

import (
	"time"
)

// CrawlStats counts the URLs a crawl dequeued for fetching.
// Once a crawl finishes, Attempted == Successful + Failed.
type CrawlStats struct {
	// Attempted is the number of distinct URLs dequeued for fetching.
	Attempted int `json:"attempted"`

	// Successful is the number of fetches that returned a 2xx response
	// and could be parsed, whether or not they yielded content.
	Successful int `json:"successful"`

	// Failed is the number of fetches that hit a network error, a non-2xx
	// status or a parse error.
	Failed int `json:"failed"`
}

// Consistent reports whether every attempt is accounted for.
func (s CrawlStats) Consistent() bool {
	return s.Attempted == s.Successful+s.Failed
}

// PageResult records what happened to one fetched URL.
type PageResult struct {
	// URL is the fragment-free URL that was fetched.
	URL string `json:"url"`

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int `json:"status_code,omitempty"`

	// Characters is the length in runes of the extracted text.
	// Zero for failed pages and for pages with an empty content container.
	Characters int `json:"characters"`

	// LinksFound is the number of in-scope links the page contributed to the frontier.
	LinksFound int `json:"links_found"`

	// Digest is the SHA3-256 hex digest of the extracted text, empty when
	// nothing was extracted.
	Digest string `json:"digest,omitempty"`

	// Duration is how long the fetch and extraction took.
	Duration time.Duration `json:"duration"`

	// Error describes the failure; empty for successful fetches.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the page counted as a successful fetch.
func (p PageResult) Succeeded() bool {
	return p.Error == ""
}

// HasContent reports whether the page contributed a content block.
func (p PageResult) HasContent() bool {
	return p.Characters > 0
}

// CrawlResult is what the crawler hands back when a crawl terminates.
type CrawlResult struct {
	// SeedURL is the first URL placed in the frontier; it is also the scope prefix.
	SeedURL string `json:"seed_url"`

	// Stats holds the final counters.
	Stats CrawlStats `json:"stats"`

	// Pages lists every attempted URL in completion order.
	Pages []PageResult `json:"pages"`

	// Blocks holds the formatted content blocks in completion order.
	Blocks []string `json:"-"`

	// MaxInFlight is the highest number of simultaneous fetches observed.
	MaxInFlight int `json:"max_in_flight"`

	// TimedOut is true when the crawl timeout cut the crawl short.
	TimedOut bool `json:"timed_out"`

	// Cancelled is true when the caller cancelled the crawl.
	Cancelled bool `json:"cancelled"`
}

// HasContent reports whether at least one block was extracted.
func (r *CrawlResult) HasContent() bool {
	return r != nil && len(r.Blocks) > 0
}

// Interrupted reports whether the crawl stopped before its frontier drained.
func (r *CrawlResult) Interrupted() bool {
	return r != nil && (r.TimedOut || r.Cancelled)
}

// CrawlReport is the per-invocation record: the crawl result plus what was
// done with it. Pipeline steps fill it in order.
type CrawlReport struct {
	// Repository is the "owner/repo" identifier.
	Repository string `json:"repository"`

	// SeedURL is the wiki URL the crawl started from.
	SeedURL string `json:"seed_url"`

	// StartedAt and FinishedAt bound the crawl.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Outcome is the classification computed after the crawl.
	Outcome Outcome `json:"outcome"`

	// Stats, Pages, MaxInFlight, TimedOut and Cancelled are copied from the CrawlResult.
	Stats       CrawlStats   `json:"stats"`
	Pages       []PageResult `json:"pages"`
	MaxInFlight int          `json:"max_in_flight"`
	TimedOut    bool         `json:"timed_out"`
	Cancelled   bool         `json:"cancelled"`

	// Document is the joined content that was delivered. It is not
	// serialized; history stores the per-page digests instead.
	Document string `json:"-"`

	// DeliveredTo lists the sinks that received the document
	// (for example "clipboard", "file:/tmp/wiki.md").
	DeliveredTo []string `json:"delivered_to,omitempty"`

	// HistoryID is the crawl history run ID once the report has been saved.
	HistoryID int64 `json:"history_id,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error is the error that stopped the pipeline, if any.
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`
}

// NewCrawlReport creates an empty report for a repository crawl.
func NewCrawlReport(repo Repository, seedURL string) *CrawlReport {
	return &CrawlReport{
		Repository: repo.String(),
		SeedURL:    seedURL,
		StartedAt:  time.Now(),
		Pages:      make([]PageResult, 0),
	}
}

// ApplyResult copies the crawl result into the report.
func (r *CrawlReport) ApplyResult(result *CrawlResult) {
	if result == nil {
		return
	}
	r.Stats = result.Stats
	r.Pages = result.Pages
	r.MaxInFlight = result.MaxInFlight
	r.TimedOut = result.TimedOut
	r.Cancelled = result.Cancelled
}

// Duration returns how long the crawl took, or zero if it has not finished.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ContentPages returns the number of pages that contributed a block.
func (r *CrawlReport) ContentPages() int {
	count := 0
	for _, p := range r.Pages {
		if p.HasContent() {
			count++
		}
	}
	return count
}
