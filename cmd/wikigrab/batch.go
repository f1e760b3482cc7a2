package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/nao1215/wikigrab/internal/config"
	wlog "github.com/nao1215/wikigrab/internal/log"
	"github.com/nao1215/wikigrab/internal/model"
	"github.com/nao1215/wikigrab/internal/notify"
	"github.com/nao1215/wikigrab/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <owner/repo>...",
		Short: "Crawl several repositories into a directory",
		Long: `Batch crawls the DeepWiki pages of several repositories and writes one
document per repository to the output directory, named <owner>_<repo>.md.

The clipboard is not used. Up to --parallel repositories are crawled at the
same time, each with up to --concurrency fetches in flight; --rate is shared
by all of them.

Examples:
  # Crawl three wikis, two at a time
  wikigrab batch -d wikis spf13/cobra spf13/viper golang/go

  # Record every crawl in the history database
  wikigrab batch --save -d wikis spf13/cobra spf13/viper`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBatchCmd,
	}

	addCrawlFlags(cmd)

	cmd.Flags().StringP("output-dir", "d", "",
		"Directory the documents are written to (required)")
	cmd.Flags().IntP("parallel", "j", pipeline.DefaultBatchConcurrency,
		"Number of repositories crawled at the same time")
	_ = cmd.MarkFlagRequired("output-dir")

	return cmd
}

// runBatchCmd executes the batch command.
func runBatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.NoClipboard = true
	if cfg.OutputDir, err = cmd.Flags().GetString("output-dir"); err != nil {
		return err
	}
	parallel, err := cmd.Flags().GetInt("parallel")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := wlog.NewLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)

	// Interleaved progress lines of several crawls are noise.
	notifier := notify.NewTerminal(cmd.ErrOrStderr(), notify.WithQuiet(true))

	repos := make([]model.Repository, 0, len(args))
	for _, arg := range args {
		repo, err := model.ParseRepository(arg)
		if err != nil {
			pipeline.Notify(notifier, invalidInputReport(arg, err))
			return reported(err)
		}
		repos = append(repos, repo)
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	reports, err := runBatch(ctx, cfg, repos, parallel, notifier, logger)
	if err != nil {
		return err
	}

	if cfg.ReportFormat != "" || cfg.ReportFile != "" {
		if err := writeBatchReports(cfg, reports, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range reports {
		if r == nil || r.Error != nil || !r.Outcome.IsSuccess() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d repositories failed", failed, len(repos))
	}
	return nil
}

// batchFileName is the document name of a repository in the output directory.
func batchFileName(repo model.Repository) string {
	return repo.Owner() + "_" + repo.Name() + ".md"
}

// runBatch crawls every repository, each through its own pipeline.
func runBatch(ctx context.Context, cfg *config.Config, repos []model.Repository, parallel int, notifier notify.Notifier, logger *slog.Logger) ([]*model.CrawlReport, error) {
	fetcher, err := newFetcher(cfg)
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

	factory := func(repo model.Repository) *pipeline.Pipeline {
		repoNotifier := notify.WithPrefix(notifier, repo.String())
		spider, err := newSpider(cfg, fetcher, nil, logger.With("repository", repo.String()))
		if err != nil {
			logger.Error("failed to create spider", "repository", repo.String(), "error", err)
		}

		opts := []pipeline.DefaultPipelineOption{
			pipeline.WithOutputFile(filepath.Join(cfg.OutputDir, batchFileName(repo))),
			pipeline.WithNotifier(repoNotifier),
		}
		if db != nil {
			opts = append(opts, pipeline.WithHistory(db))
		}
		return pipeline.DefaultPipeline(spider, []pipeline.Option{pipeline.WithLogger(logger)}, opts...)
	}

	bp := pipeline.NewBatchProcessor(cfg.BaseURL, factory,
		pipeline.WithBatchConcurrency(parallel),
		pipeline.WithBatchLogger(logger),
	)

	reports, err := bp.ProcessBatch(ctx, repos)
	for _, r := range reports {
		// A pipeline that stopped on an error skipped its notify step.
		if r != nil && r.Error != nil {
			pipeline.Notify(notify.WithPrefix(notifier, r.Repository), r)
		}
	}
	if err != nil {
		return reports, fmt.Errorf("batch interrupted: %w", err)
	}
	return reports, nil
}

// writeBatchReports writes one summary per finished repository.
func writeBatchReports(cfg *config.Config, reports []*model.CrawlReport, stdout, stderr io.Writer) error {
	w, closeReport, err := openReportWriter(cfg, stdout, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = closeReport() }()

	for _, r := range reports {
		if r == nil {
			continue
		}
		if _, err := w.Write(r); err != nil {
			return fmt.Errorf("failed to write report for %s: %w", r.Repository, err)
		}
	}
	return nil
}
