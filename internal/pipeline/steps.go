package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/wikigrab/internal/clipboard"
	"github.com/nao1215/wikigrab/internal/crawler"
	"github.com/nao1215/wikigrab/internal/database"
	"github.com/nao1215/wikigrab/internal/model"
	"github.com/nao1215/wikigrab/internal/notify"
	"github.com/nao1215/wikigrab/internal/report"
)

// Step names, also recorded in CrawlReport.PerformedSteps.
const (
	StepCrawl     = "crawl"
	StepClipboard = "clipboard"
	StepFile      = "file"
	StepStdout    = "stdout"
	StepHistory   = "history"
	StepReport    = "report"
	StepNotify    = "notify"
)

// ErrNoSpider is returned when a CrawlStep has no spider to run.
var ErrNoSpider = errors.New("crawl step has no spider")

// CrawlStep crawls the report's seed URL and classifies the result.
type CrawlStep struct {
	spider *crawler.Spider
	logger *slog.Logger
}

// NewCrawlStep creates a crawl step around a configured spider.
func NewCrawlStep(spider *crawler.Spider, logger *slog.Logger) *CrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrawlStep{spider: spider, logger: logger}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return StepCrawl
}

// Do runs the crawl and fills in the statistics, document and outcome.
func (s *CrawlStep) Do(ctx context.Context, r *model.CrawlReport) error {
	if s.spider == nil {
		return ErrNoSpider
	}

	result, err := s.spider.Crawl(ctx, r.SeedURL)
	r.FinishedAt = time.Now()
	if err != nil {
		r.Outcome = model.OutcomeFailed
		return fmt.Errorf("crawl %s: %w", r.SeedURL, err)
	}

	r.ApplyResult(result)
	r.Document = report.Document(result)
	r.Outcome = report.Classify(result)

	s.logger.Info("crawl finished",
		"repository", r.Repository,
		"outcome", r.Outcome.String(),
		"attempted", r.Stats.Attempted,
		"successful", r.Stats.Successful,
		"failed", r.Stats.Failed,
		"max_in_flight", r.MaxInFlight,
		"concurrency", s.spider.Concurrency(),
		"duration", r.Duration(),
	)
	return nil
}

// ClipboardStep copies the document to the clipboard on success paths.
type ClipboardStep struct {
	writer clipboard.Writer
}

// NewClipboardStep creates a clipboard delivery step.
func NewClipboardStep(w clipboard.Writer) *ClipboardStep {
	return &ClipboardStep{writer: w}
}

// Name returns the step name.
func (s *ClipboardStep) Name() string {
	return StepClipboard
}

// Do writes the document to the clipboard when the crawl extracted content.
func (s *ClipboardStep) Do(_ context.Context, r *model.CrawlReport) error {
	if !r.Outcome.IsSuccess() {
		return nil
	}
	if err := s.writer.WriteAll(r.Document); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	r.DeliveredTo = append(r.DeliveredTo, StepClipboard)
	return nil
}

// FileStep writes the document to a file on success paths.
type FileStep struct {
	path string
}

// NewFileStep creates a file delivery step.
func NewFileStep(path string) *FileStep {
	return &FileStep{path: path}
}

// Name returns the step name.
func (s *FileStep) Name() string {
	return StepFile
}

// Do writes the document with 0600 permissions, creating parent directories.
func (s *FileStep) Do(_ context.Context, r *model.CrawlReport) error {
	if !r.Outcome.IsSuccess() {
		return nil
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(withTrailingNewline(r.Document)), 0600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	r.DeliveredTo = append(r.DeliveredTo, StepFile+":"+s.path)
	return nil
}

// StdoutStep prints the document on success paths.
type StdoutStep struct {
	out io.Writer
}

// NewStdoutStep creates a step that prints the document to out.
func NewStdoutStep(out io.Writer) *StdoutStep {
	return &StdoutStep{out: out}
}

// Name returns the step name.
func (s *StdoutStep) Name() string {
	return StepStdout
}

// Do prints the document.
func (s *StdoutStep) Do(_ context.Context, r *model.CrawlReport) error {
	if !r.Outcome.IsSuccess() {
		return nil
	}
	if _, err := io.WriteString(s.out, withTrailingNewline(r.Document)); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	r.DeliveredTo = append(r.DeliveredTo, StepStdout)
	return nil
}

// HistoryStep saves the report in the crawl history database.
// Saving is best effort: a database error is logged, not returned.
type HistoryStep struct {
	db     *database.HistoryDB
	logger *slog.Logger
}

// NewHistoryStep creates a history step.
func NewHistoryStep(db *database.HistoryDB, logger *slog.Logger) *HistoryStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStep{db: db, logger: logger}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return StepHistory
}

// Do saves the report. It ignores cancellation of ctx so an interrupted
// crawl is still recorded.
func (s *HistoryStep) Do(ctx context.Context, r *model.CrawlReport) error {
	id, err := s.db.SaveCrawlReport(context.WithoutCancel(ctx), r)
	if err != nil {
		s.logger.Warn("failed to save crawl history",
			"repository", r.Repository,
			"error", err,
		)
		return nil
	}
	r.HistoryID = id
	s.logger.Debug("crawl history saved",
		"repository", r.Repository,
		"run_id", id,
		"database", s.db.Path(),
	)
	return nil
}

// ReportStep writes the crawl summary with a report.Writer.
type ReportStep struct {
	writer report.Writer
}

// NewReportStep creates a report step.
func NewReportStep(w report.Writer) *ReportStep {
	return &ReportStep{writer: w}
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return StepReport
}

// Do writes the summary.
func (s *ReportStep) Do(_ context.Context, r *model.CrawlReport) error {
	if _, err := s.writer.Write(r); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// NotifyStep sends the final success or failure notification.
type NotifyStep struct {
	notifier notify.Notifier
}

// NewNotifyStep creates a notification step.
func NewNotifyStep(n notify.Notifier) *NotifyStep {
	return &NotifyStep{notifier: n}
}

// Name returns the step name.
func (s *NotifyStep) Name() string {
	return StepNotify
}

// Do notifies with the message for the report's outcome.
func (s *NotifyStep) Do(_ context.Context, r *model.CrawlReport) error {
	Notify(s.notifier, r)
	return nil
}

// Notify sends the final notification for r. A report that carries a
// pipeline error is always a failure.
func Notify(n notify.Notifier, r *model.CrawlReport) {
	if r.Error != nil && r.Outcome != model.OutcomeInvalidInput {
		n.Failure("wikigrab failed", r.Error.Error())
		return
	}
	title, detail := report.Message(r)
	if r.Outcome.IsSuccess() {
		n.Success(title, detail)
		return
	}
	n.Failure(title, detail)
}

func withTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// DefaultPipelineConfig holds the sinks of the default pipeline.
// Nil or empty fields leave the corresponding step out.
type DefaultPipelineConfig struct {
	// Clipboard receives the document.
	Clipboard clipboard.Writer

	// OutputFile is a path the document is written to.
	OutputFile string

	// Stdout receives the document.
	Stdout io.Writer

	// History stores the report.
	History *database.HistoryDB

	// Report writes the crawl summary.
	Report report.Writer

	// Notifier receives the final notification.
	Notifier notify.Notifier
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithClipboard delivers the document to the clipboard.
func WithClipboard(w clipboard.Writer) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Clipboard = w
	}
}

// WithOutputFile delivers the document to a file.
func WithOutputFile(path string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.OutputFile = path
	}
}

// WithStdout delivers the document to w.
func WithStdout(w io.Writer) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Stdout = w
	}
}

// WithHistory saves the report in db.
func WithHistory(db *database.HistoryDB) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.History = db
	}
}

// WithReportWriter writes the crawl summary with w.
func WithReportWriter(w report.Writer) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Report = w
	}
}

// WithNotifier sends the final notification to n.
func WithNotifier(n notify.Notifier) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Notifier = n
	}
}

// DefaultPipeline creates the standard wikigrab pipeline: crawl, deliver,
// record, summarize and notify, in that order.
func DefaultPipeline(spider *crawler.Spider, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddStep(NewCrawlStep(spider, p.logger))
	if cfg.Clipboard != nil {
		p.AddStep(NewClipboardStep(cfg.Clipboard))
	}
	if cfg.OutputFile != "" {
		p.AddStep(NewFileStep(cfg.OutputFile))
	}
	if cfg.Stdout != nil {
		p.AddStep(NewStdoutStep(cfg.Stdout))
	}
	if cfg.History != nil {
		p.AddStep(NewHistoryStep(cfg.History, p.logger))
	}
	if cfg.Report != nil {
		p.AddStep(NewReportStep(cfg.Report))
	}
	if cfg.Notifier != nil {
		p.AddStep(NewNotifyStep(cfg.Notifier))
	}

	return p
}
