package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/wikigrab/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency is how many repositories are crawled at once.
const DefaultBatchConcurrency = 2

// BatchProcessor crawls several repositories, each through its own pipeline.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each repository.
	// A Spider runs one crawl at a time, so pipelines are never shared.
	pipelineFactory func(repo model.Repository) *Pipeline

	// baseURL is the wiki host the seed URLs are built from.
	baseURL string

	// concurrency is the maximum number of concurrent pipelines.
	concurrency int

	logger *slog.Logger

	results []*model.CrawlReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithBatchConcurrency sets the maximum number of concurrent pipelines.
// Values below 1 are ignored.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(baseURL string, pipelineFactory func(repo model.Repository) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		baseURL:         baseURL,
		concurrency:     DefaultBatchConcurrency,
		results:         make([]*model.CrawlReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls the repositories concurrently and returns one report
// per repository, in input order. A failing pipeline does not stop the
// others; its error is recorded in its report. The returned error is
// non-nil only when ctx was cancelled before every pipeline started.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, repos []model.Repository) ([]*model.CrawlReport, error) {
	bp.logger.Info("starting batch",
		"repositories", len(repos),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	bp.results = make([]*model.CrawlReport, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, repo := range repos {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			bp.logger.Info("crawling repository",
				"repository", repo.String(),
				"index", i+1,
				"total", len(repos),
			)

			report := model.NewCrawlReport(repo, repo.SeedURL(bp.baseURL))
			err := bp.pipelineFactory(repo).Execute(gctx, report)

			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("repository failed",
					"repository", repo.String(),
					"error", err,
				)
				return nil
			}

			bp.logger.Info("repository completed",
				"repository", repo.String(),
				"outcome", report.Outcome.String(),
			)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch complete",
		"repositories", len(repos),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback crawls the repositories and calls callback for
// each finished report with its index in repos. The callback runs on the
// pipeline's goroutine and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	repos []model.Repository,
	callback func(report *model.CrawlReport, index int),
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, repo := range repos {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			report := model.NewCrawlReport(repo, repo.SeedURL(bp.baseURL))
			_ = bp.pipelineFactory(repo).Execute(gctx, report) //nolint:errcheck // error is stored in report
			callback(report, i)
			return nil
		})
	}

	return g.Wait()
}
