package crawler

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/wikigrab/internal/model"
)

const (
	// DefaultConcurrency is the default number of simultaneous fetches.
	DefaultConcurrency = 5

	// DefaultCrawlTimeout bounds a whole crawl.
	DefaultCrawlTimeout = 10 * time.Minute
)

// Spider errors.
var (
	// ErrInvalidSeedURL is returned when the seed is not an absolute http(s) URL.
	ErrInvalidSeedURL = errors.New("seed URL must be an absolute http or https URL")
	// ErrCrawlInProgress is returned when Crawl is called while another crawl
	// on the same Spider is running.
	ErrCrawlInProgress = errors.New("a crawl is already running on this spider")
)

// Spider crawls one wiki subtree with at most N fetches in flight.
// A Spider runs one crawl at a time; Active and InFlight describe that crawl.
type Spider struct {
	fetcher     *Fetcher
	extractor   Extractor
	robots      *RobotsPolicy
	concurrency int
	timeout     time.Duration
	maxPages    int
	onProgress  func(url string)
	logger      *slog.Logger

	running  atomic.Bool
	active   atomic.Int64
	inFlight atomic.Int64
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithConcurrency sets the maximum number of simultaneous fetches.
// Values below 1 are raised to 1.
func WithConcurrency(n int) SpiderOption {
	return func(s *Spider) {
		if n < 1 {
			n = 1
		}
		s.concurrency = n
	}
}

// WithTimeout bounds the whole crawl. Zero disables the limit.
func WithTimeout(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.timeout = d
	}
}

// WithMaxPages stops dequeuing once n URLs were attempted. Zero means unlimited.
func WithMaxPages(n int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = n
	}
}

// WithExtractor replaces the default SelectorExtractor.
func WithExtractor(e Extractor) SpiderOption {
	return func(s *Spider) {
		if e != nil {
			s.extractor = e
		}
	}
}

// WithRobots filters enqueued URLs through a robots.txt policy.
// A nil policy disables the filter.
func WithRobots(p *RobotsPolicy) SpiderOption {
	return func(s *Spider) {
		s.robots = p
	}
}

// WithProgress registers a callback invoked with each URL right before it is
// fetched. It is called from worker goroutines and must be safe for
// concurrent use.
func WithProgress(fn func(url string)) SpiderOption {
	return func(s *Spider) {
		s.onProgress = fn
	}
}

// WithLogger sets the logger for per-page diagnostics.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSpider creates a Spider that fetches pages through fetcher.
func NewSpider(fetcher *Fetcher, opts ...SpiderOption) *Spider {
	if fetcher == nil {
		fetcher = NewFetcher(nil)
	}
	s := &Spider{
		fetcher:     fetcher,
		extractor:   NewSelectorExtractor(DefaultContentSelector),
		concurrency: DefaultConcurrency,
		timeout:     DefaultCrawlTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Concurrency returns the configured bound N.
func (s *Spider) Concurrency() int {
	return s.concurrency
}

// Active returns the number of running workers.
func (s *Spider) Active() int {
	return int(s.active.Load())
}

// InFlight returns the number of fetches currently in progress.
func (s *Spider) InFlight() int {
	return int(s.inFlight.Load())
}

// Crawl visits every page reachable from seedURL whose URL starts with
// seedURL and returns the extracted blocks with statistics.
//
// Page failures are recorded in the result and never returned as errors.
// When ctx is cancelled or the crawl timeout expires, in-flight fetches are
// abandoned, all workers are joined and the partial result is returned with
// Cancelled or TimedOut set.
func (s *Spider) Crawl(ctx context.Context, seedURL string) (*model.CrawlResult, error) {
	seed := StripFragment(seedURL)
	u, err := url.Parse(seed)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeedURL, seedURL)
	}

	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrCrawlInProgress
	}
	defer s.running.Store(false)

	crawlCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		crawlCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	run := &crawlRun{
		spider:   s,
		ctx:      crawlCtx,
		scope:    NewScope(seed),
		frontier: NewFrontier(),
		result: &model.CrawlResult{
			SeedURL: seed,
			Pages:   make([]model.PageResult, 0),
			Blocks:  make([]string, 0),
		},
	}
	run.group.SetLimit(s.concurrency)

	if run.allowed(seed) {
		run.frontier.Push(seed)
	}
	run.group.Go(run.worker)
	_ = run.group.Wait()

	s.logger.Debug("crawl drained",
		"scope", run.scope.Base(),
		"visited", run.frontier.VisitedCount(),
		"left_queued", run.frontier.Len(),
	)
	return run.finish(ctx), nil
}

// crawlRun holds the state of one Crawl call.
type crawlRun struct {
	spider   *Spider
	ctx      context.Context
	scope    Scope
	frontier *Frontier
	group    errgroup.Group

	successful  atomic.Int64
	failed      atomic.Int64
	maxInFlight atomic.Int64
	interrupted atomic.Bool

	mu     sync.Mutex
	result *model.CrawlResult
}

// worker loops dequeue → fetch → spawn until the frontier is empty, the page
// cap is reached or the context is done.
func (r *crawlRun) worker() error {
	r.spider.active.Add(1)
	defer r.spider.active.Add(-1)

	for {
		if r.ctx.Err() != nil {
			r.interrupted.Store(true)
			return nil
		}

		// Dequeue counts the attempt: the visited set is the attempt count.
		next, ok := r.frontier.Dequeue(r.spider.maxPages)
		if !ok {
			return nil
		}

		if r.ctx.Err() != nil {
			r.interrupted.Store(true)
			r.record(model.PageResult{URL: next, Error: r.ctx.Err().Error()}, "")
			return nil
		}

		r.process(next)
		r.spawn()
	}
}

// spawn starts one extra worker per queued URL until the group is full.
// Two workers finishing together may both spawn for the same queued URL;
// the surplus worker finds the frontier empty and exits, and the group
// limit keeps the total at or below N.
func (r *crawlRun) spawn() {
	for i := r.frontier.Len(); i > 0; i-- {
		if !r.group.TryGo(r.worker) {
			return
		}
	}
}

// process fetches one page, records its outcome and enqueues its links.
func (r *crawlRun) process(pageURL string) {
	s := r.spider
	if s.onProgress != nil {
		s.onProgress(pageURL)
	}

	current := s.inFlight.Add(1)
	for {
		peak := r.maxInFlight.Load()
		if current <= peak || r.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}

	start := time.Now()
	page, text, links := r.fetchAndExtract(pageURL)
	s.inFlight.Add(-1)
	page.Duration = time.Since(start)

	enqueued := 0
	for _, link := range links {
		if r.scope.Contains(link) && !r.frontier.IsVisited(link) && r.allowed(link) {
			if r.frontier.Push(link) {
				enqueued++
			}
		}
	}
	page.LinksFound = enqueued

	block := ""
	if text != "" {
		block = FormatBlock(pageURL, text)
	}
	r.record(page, block)
}

// fetchAndExtract never fails: errors become a PageResult with Error set.
func (r *crawlRun) fetchAndExtract(pageURL string) (model.PageResult, string, []string) {
	s := r.spider
	page := model.PageResult{URL: pageURL}

	resp, err := s.fetcher.Fetch(r.ctx, pageURL)
	if resp != nil {
		page.StatusCode = resp.StatusCode
	}
	if err != nil {
		s.logger.Debug("page fetch failed", "url", pageURL, "status", page.StatusCode, "error", err)
		page.Error = err.Error()
		return page, "", nil
	}

	content, err := s.extractor.Extract(pageURL, bytes.NewReader(resp.Body))
	if err != nil {
		s.logger.Debug("page extraction failed", "url", pageURL, "error", err)
		page.Error = err.Error()
		return page, "", nil
	}

	if content.Text != "" {
		page.Characters = utf8.RuneCountInString(content.Text)
		page.Digest = Digest(content.Text)
	}
	s.logger.Debug("page fetched", "url", pageURL, "status", page.StatusCode,
		"characters", page.Characters, "links", len(content.Links),
		"workers", s.Active(), "in_flight", s.InFlight())
	return page, content.Text, content.Links
}

// record updates the counters and appends the page and its block.
func (r *crawlRun) record(page model.PageResult, block string) {
	if page.Succeeded() {
		r.successful.Add(1)
	} else {
		r.failed.Add(1)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Pages = append(r.result.Pages, page)
	if block != "" {
		r.result.Blocks = append(r.result.Blocks, block)
	}
}

// allowed applies the optional robots.txt policy.
func (r *crawlRun) allowed(rawURL string) bool {
	if r.spider.robots == nil {
		return true
	}
	return r.spider.robots.Allowed(r.ctx, rawURL)
}

// finish snapshots the counters once every worker has exited.
func (r *crawlRun) finish(parent context.Context) *model.CrawlResult {
	r.result.Stats = model.CrawlStats{
		Attempted:  r.frontier.VisitedCount(),
		Successful: int(r.successful.Load()),
		Failed:     int(r.failed.Load()),
	}
	r.result.MaxInFlight = int(r.maxInFlight.Load())

	if r.interrupted.Load() {
		if parent.Err() != nil {
			r.result.Cancelled = true
		} else {
			r.result.TimedOut = true
		}
	}
	return r.result
}

// FormatBlock renders one page's contribution to the document.
func FormatBlock(pageURL, text string) string {
	return "## Page: " + pageURL + "\n\n" + text
}

// Digest returns the SHA3-256 hex digest of text.
func Digest(text string) string {
	sum := sha3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
