package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/wikigrab/internal/clipboard"
	"github.com/nao1215/wikigrab/internal/config"
	"github.com/nao1215/wikigrab/internal/crawler"
	"github.com/nao1215/wikigrab/internal/database"
	wlog "github.com/nao1215/wikigrab/internal/log"
	"github.com/nao1215/wikigrab/internal/model"
	"github.com/nao1215/wikigrab/internal/notify"
	"github.com/nao1215/wikigrab/internal/pipeline"
	"github.com/nao1215/wikigrab/internal/report"
	"github.com/spf13/cobra"
)

// Exit conditions of a completed crawl that are reported as failures.
var (
	ErrNothingExtracted = errors.New("no content extracted")
	ErrCrawlFailed      = errors.New("crawl failed")
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <owner/repo|github-url>",
		Short: "Copy the DeepWiki documentation of a repository",
		Long: `Crawl fetches https://deepwiki.com/<owner>/<repo>/ and every wiki page linked
below it, extracts the documentation text and copies it to the clipboard.

Pages are fetched concurrently (5 at a time by default). Links outside the
repository's wiki are ignored and every URL is fetched at most once. Pages
that fail to load are counted; the crawl succeeds as long as at least one
page produced text.

Examples:
  # Copy a wiki to the clipboard
  wikigrab crawl golang/go

  # A GitHub URL works too
  wikigrab crawl https://github.com/spf13/cobra

  # Write the document to a file instead of the clipboard
  wikigrab crawl --no-clipboard -o cobra.md spf13/cobra

  # Be gentle: two fetches at a time, at most 3 requests per second
  wikigrab crawl -n 2 --rate 3 spf13/cobra

  # Keep a history of crawls and print a summary
  wikigrab crawl --save --report text spf13/cobra`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	addCrawlFlags(cmd)

	cmd.Flags().Bool("no-clipboard", false,
		"Do not copy the document to the clipboard (requires --output or --stdout)")
	cmd.Flags().StringP("output", "o", "",
		"Also write the document to this file (creates directories if needed)")
	cmd.Flags().Bool("stdout", false,
		"Also print the document to standard output")

	return cmd
}

// addCrawlFlags registers the flags shared by crawl and batch.
func addCrawlFlags(cmd *cobra.Command) {
	// Crawl behavior flags
	cmd.Flags().IntP(config.FlagConcurrency, "n", config.DefaultConcurrency,
		"Maximum number of pages fetched at the same time")
	cmd.Flags().DurationP(config.FlagTimeout, "t", config.DefaultTimeout,
		"Timeout for the whole crawl (0 disables)")
	cmd.Flags().Duration(config.FlagPageTimeout, config.DefaultPageTimeout,
		"Timeout for each page fetch (0 disables)")
	cmd.Flags().IntP(config.FlagMaxPages, "p", 0,
		"Maximum number of pages to fetch (0 means no limit)")
	cmd.Flags().Float64(config.FlagRate, 0,
		"Maximum requests per second across all workers (0 means unlimited)")
	cmd.Flags().Bool(config.FlagRespectRobots, false,
		"Skip pages disallowed by robots.txt")

	// Extraction flags
	cmd.Flags().String(config.FlagSelector, config.DefaultSelector,
		"CSS selector of the content container")
	cmd.Flags().String(config.FlagExtract, config.ExtractSelector,
		"Extraction mode: selector or readability")

	// Network flags
	cmd.Flags().String(config.FlagBaseURL, config.DefaultBaseURL,
		"Wiki site to crawl")
	cmd.Flags().String(config.FlagUserAgent, config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String(config.FlagProxy, "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")
	cmd.Flags().StringArrayP(config.FlagHeader, "H", nil,
		`Extra request header "Name: value" (repeatable)`)

	// Output flags
	cmd.Flags().BoolP("quiet", "q", false,
		"Do not print a progress line per page")
	cmd.Flags().Bool(config.FlagSave, false,
		"Record the crawl in the history database")
	cmd.Flags().StringP(config.FlagReport, "r", "",
		"Print a crawl summary: text, json or markdown")
	cmd.Flags().String("report-file", "",
		"Also write the crawl summary to this file (JSON unless --report is set)")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .wikigrab in current or home directory)")
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := wlog.NewLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)

	notifier := notify.NewTerminal(cmd.ErrOrStderr(), notify.WithQuiet(cfg.Quiet))

	repo, err := model.ParseRepository(cfg.Repository)
	if err != nil {
		pipeline.Notify(notifier, invalidInputReport(cfg.Repository, err))
		return reported(err)
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	_, err = runCrawl(ctx, cfg, repo, notifier, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
	return err
}

// invalidInputReport builds the report of a rejected repository identifier.
func invalidInputReport(input string, err error) *model.CrawlReport {
	return &model.CrawlReport{
		Repository:   input,
		Outcome:      model.OutcomeInvalidInput,
		Error:        err,
		ErrorMessage: err.Error(),
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogJSONFlag retrieves the log-json flag from the command or its parent.
func getLogJSONFlag(cmd *cobra.Command) bool {
	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		logJSON, err = cmd.Root().PersistentFlags().GetBool("log-json")
		if err != nil {
			return false
		}
	}
	return logJSON
}

// buildConfig creates a Config from cobra command flags merged with the
// configuration file. Flags set on the command line win over file values.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error

	if cfg.Concurrency, err = flags.GetInt(config.FlagConcurrency); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration(config.FlagTimeout); err != nil {
		return nil, err
	}
	if cfg.PageTimeout, err = flags.GetDuration(config.FlagPageTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt(config.FlagMaxPages); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = flags.GetFloat64(config.FlagRate); err != nil {
		return nil, err
	}
	if cfg.RespectRobots, err = flags.GetBool(config.FlagRespectRobots); err != nil {
		return nil, err
	}
	if cfg.Selector, err = flags.GetString(config.FlagSelector); err != nil {
		return nil, err
	}
	if cfg.ExtractMode, err = flags.GetString(config.FlagExtract); err != nil {
		return nil, err
	}
	if cfg.BaseURL, err = flags.GetString(config.FlagBaseURL); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString(config.FlagUserAgent); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString(config.FlagProxy); err != nil {
		return nil, err
	}
	rawHeaders, err := flags.GetStringArray(config.FlagHeader)
	if err != nil {
		return nil, err
	}
	for _, raw := range rawHeaders {
		name, value, err := config.ParseHeader(raw)
		if err != nil {
			return nil, err
		}
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		cfg.Headers[name] = value
	}
	if cfg.Quiet, err = flags.GetBool("quiet"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = flags.GetBool(config.FlagSave); err != nil {
		return nil, err
	}
	if cfg.ReportFormat, err = flags.GetString(config.FlagReport); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report-file"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	// Delivery flags exist on crawl only.
	if flags.Lookup("no-clipboard") != nil {
		if cfg.NoClipboard, err = flags.GetBool("no-clipboard"); err != nil {
			return nil, err
		}
		if cfg.OutputFile, err = flags.GetString("output"); err != nil {
			return nil, err
		}
		if cfg.Stdout, err = flags.GetBool("stdout"); err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.LogJSON = getLogJSONFlag(cmd)

	// If the user explicitly specified a config file path, error if not found.
	// Otherwise a missing file just means defaults.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg, flags.Changed)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if len(args) > 0 {
		cfg.Repository = args[0]
	}

	return cfg, nil
}

// clientOptions returns the HTTP client options shared by page and
// robots.txt requests.
func clientOptions(cfg *config.Config) []crawler.ClientOption {
	var opts []crawler.ClientOption
	if cfg.ProxyAddress != "" {
		opts = append(opts, crawler.WithProxy(cfg.ProxyAddress))
	}
	for name, value := range cfg.Headers {
		opts = append(opts, crawler.WithHeader(name, value))
	}
	return opts
}

// newFetcher builds the HTTP client and fetcher described by cfg.
// One fetcher may serve several spiders; its rate limit is then shared.
func newFetcher(cfg *config.Config) (*crawler.Fetcher, error) {
	client, err := crawler.NewHTTPClient(clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return crawler.NewFetcher(client,
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithPageTimeout(cfg.PageTimeout),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithRateLimit(cfg.RateLimit),
	), nil
}

// newSpider builds a spider on top of fetcher.
func newSpider(cfg *config.Config, fetcher *crawler.Fetcher, progress func(string), logger *slog.Logger) (*crawler.Spider, error) {
	extractor, err := crawler.NewExtractor(cfg.ExtractMode, cfg.Selector)
	if err != nil {
		return nil, err
	}

	opts := []crawler.SpiderOption{
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithExtractor(extractor),
		crawler.WithLogger(logger),
	}
	if progress != nil {
		opts = append(opts, crawler.WithProgress(progress))
	}
	if cfg.RespectRobots {
		// robots.txt bypasses the fetcher, so it gets its own deadline.
		client, err := crawler.NewHTTPClient(append(clientOptions(cfg), crawler.WithClientTimeout(cfg.PageTimeout))...)
		if err != nil {
			return nil, fmt.Errorf("failed to create robots.txt client: %w", err)
		}
		policy := crawler.NewRobotsPolicy(client, fetcher.UserAgent(), crawler.WithRobotsTimeout(cfg.PageTimeout))
		opts = append(opts, crawler.WithRobots(policy))
	}

	return crawler.NewSpider(fetcher, opts...), nil
}

// openHistory opens the history database when saving is enabled.
// It returns nil when saving is disabled.
func openHistory(cfg *config.Config, logger *slog.Logger) (*database.HistoryDB, error) {
	if !cfg.SaveToDB {
		return nil, nil
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())
	return db, nil
}

// openReportWriter returns the summary writer for cfg, or nil when no
// summary was requested. --report prints the summary; --report-file also
// writes it to a file, as JSON when no format was given. With --stdout the
// printed summary goes to stderr so the document stays alone on stdout.
// The returned close function is never nil.
func openReportWriter(cfg *config.Config, stdout, stderr io.Writer) (report.Writer, func() error, error) {
	noop := func() error { return nil }
	if cfg.ReportFormat == "" && cfg.ReportFile == "" {
		return nil, noop, nil
	}

	var writers []report.Writer
	if cfg.ReportFormat != "" {
		out := stdout
		if cfg.Stdout {
			out = stderr
		}
		w, err := report.NewWriter(cfg.ReportFormat, out)
		if err != nil {
			return nil, noop, err
		}
		writers = append(writers, w)
	}

	closer := noop
	if cfg.ReportFile != "" {
		format := cfg.ReportFormat
		if format == "" {
			format = report.FormatJSON
		}
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, noop, fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create report file: %w", err)
		}
		w, err := report.NewWriter(format, f)
		if err != nil {
			_ = f.Close()
			return nil, noop, err
		}
		writers = append(writers, w)
		closer = f.Close
	}

	if len(writers) == 1 {
		return writers[0], closer, nil
	}
	return report.NewMultiWriter(writers...), closer, nil
}

// runCrawl crawls one repository through the default pipeline.
// The document and the summary go to stdout; the summary moves to stderr
// when the document is printed too.
func runCrawl(ctx context.Context, cfg *config.Config, repo model.Repository, notifier notify.Notifier, stdout, stderr io.Writer, logger *slog.Logger) (*model.CrawlReport, error) {
	fetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, err
	}
	spider, err := newSpider(cfg, fetcher, notifier.Progress, logger)
	if err != nil {
		return nil, err
	}

	db, err := openHistory(cfg, logger)
	if err != nil {
		return nil, err
	}
	if db != nil {
		defer db.Close()
	}

	reportWriter, closeReport, err := openReportWriter(cfg, stdout, stderr)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeReport() }()

	var opts []pipeline.DefaultPipelineOption
	if !cfg.NoClipboard {
		opts = append(opts, pipeline.WithClipboard(clipboard.NewSystem()))
	}
	if cfg.OutputFile != "" {
		opts = append(opts, pipeline.WithOutputFile(cfg.OutputFile))
	}
	if cfg.Stdout {
		opts = append(opts, pipeline.WithStdout(stdout))
	}
	if db != nil {
		opts = append(opts, pipeline.WithHistory(db))
	}
	if reportWriter != nil {
		opts = append(opts, pipeline.WithReportWriter(reportWriter))
	}
	opts = append(opts, pipeline.WithNotifier(notifier))

	p := pipeline.DefaultPipeline(spider, []pipeline.Option{pipeline.WithLogger(logger)}, opts...)

	crawlReport := model.NewCrawlReport(repo, repo.SeedURL(cfg.BaseURL))
	logger.Info("starting crawl",
		"repository", repo.String(),
		"seed", crawlReport.SeedURL,
		"concurrency", cfg.Concurrency,
		"steps", p.StepNames(),
	)

	if err := p.Execute(ctx, crawlReport); err != nil {
		pipeline.Notify(notifier, crawlReport)
		return crawlReport, reported(err)
	}

	return crawlReport, outcomeError(crawlReport.Outcome)
}

// outcomeError maps a failure outcome to the error that sets the exit code.
// Partial success is a success.
func outcomeError(o model.Outcome) error {
	switch o {
	case model.OutcomeNothingExtracted:
		return reported(ErrNothingExtracted)
	case model.OutcomeFailed:
		return reported(ErrCrawlFailed)
	default:
		return nil
	}
}
