package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/markdown"
	"github.com/nao1215/wikigrab/internal/config"
	"github.com/nao1215/wikigrab/internal/database"
	"github.com/nao1215/wikigrab/internal/model"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <owner/repo>",
		Short: "Compare two recorded crawls of a repository",
		Long: `Compare shows which wiki pages were added, removed or changed between two
crawls recorded with --save. Pages are compared by the digest of their
extracted text, so the page text itself is not needed.

By default the latest two crawls of the repository are compared.

Examples:
  # Compare the latest two crawls
  wikigrab compare spf13/cobra

  # Compare a specific crawl with the latest one
  wikigrab compare --from 3 spf13/cobra

  # Compare two specific crawls as JSON
  wikigrab compare --from 3 --to 7 --json spf13/cobra`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().Int64("from", 0,
		"ID of the older crawl (default: the second latest)")
	cmd.Flags().Int64("to", 0,
		"ID of the newer crawl (default: the latest)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	repo, err := model.ParseRepository(args[0])
	if err != nil {
		return fmt.Errorf("invalid repository: %w", err)
	}

	fromID, err := cmd.Flags().GetInt64("from")
	if err != nil {
		return err
	}
	toID, err := cmd.Flags().GetInt64("to")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	fromID, toID, err = resolveComparisonIDs(ctx, db, repo.String(), fromID, toID)
	if err != nil {
		return err
	}

	diff, err := db.CompareRuns(ctx, fromID, toID)
	if err != nil {
		return fmt.Errorf("failed to compare crawls: %w", err)
	}

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return outputComparisonJSON(out, diff)
	case markdownOutput:
		return outputComparisonMarkdown(out, repo.String(), diff)
	default:
		return outputComparisonText(out, repo.String(), diff)
	}
}

// resolveComparisonIDs fills in missing IDs from the repository's latest runs.
func resolveComparisonIDs(ctx context.Context, db *database.HistoryDB, repository string, fromID, toID int64) (int64, int64, error) {
	if fromID > 0 && toID > 0 {
		return fromID, toID, nil
	}

	runs, err := db.ListRuns(ctx, repository, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get crawl history: %w", err)
	}

	if toID == 0 {
		if len(runs) == 0 {
			return 0, 0, fmt.Errorf("no crawls recorded for %s (use 'wikigrab crawl --save')", repository)
		}
		toID = runs[0].ID
	}
	if fromID == 0 {
		// runs is newest first, so the crawl before toID follows it.
		for i, run := range runs {
			if run.ID == toID && i+1 < len(runs) {
				fromID = runs[i+1].ID
				break
			}
		}
		if fromID == 0 {
			return 0, 0, fmt.Errorf("at least two crawls of %s are needed for a comparison", repository)
		}
	}
	return fromID, toID, nil
}

func outputComparisonJSON(out io.Writer, diff *database.PageDiff) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(diff)
}

func outputComparisonText(out io.Writer, repository string, diff *database.PageDiff) error {
	fmt.Fprintf(out, "Comparison for %s (crawl %d -> crawl %d)\n\n", repository, diff.FromID, diff.ToID)

	if !diff.HasChanges() {
		fmt.Fprintf(out, "No changes (%d pages unchanged)\n", diff.Unchanged)
		return nil
	}

	sections := []struct {
		title string
		mark  string
		urls  []string
	}{
		{"Added", "+", diff.Added},
		{"Removed", "-", diff.Removed},
		{"Changed", "~", diff.Changed},
	}
	for _, s := range sections {
		if len(s.urls) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s (%d):\n", s.title, len(s.urls))
		for _, u := range s.urls {
			fmt.Fprintf(out, "  %s %s\n", s.mark, u)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Unchanged: %d\n", diff.Unchanged)
	return nil
}

func outputComparisonMarkdown(out io.Writer, repository string, diff *database.PageDiff) error {
	md := markdown.NewMarkdown(out)
	md.H1(fmt.Sprintf("Wiki changes: %s", repository))
	md.PlainTextf("Crawl %d compared with crawl %d.", diff.ToID, diff.FromID)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Change", "Pages"},
		Rows: [][]string{
			{"Added", fmt.Sprintf("%d", len(diff.Added))},
			{"Removed", fmt.Sprintf("%d", len(diff.Removed))},
			{"Changed", fmt.Sprintf("%d", len(diff.Changed))},
			{"Unchanged", fmt.Sprintf("%d", diff.Unchanged)},
		},
	})

	for _, s := range []struct {
		title string
		urls  []string
	}{
		{"Added", diff.Added},
		{"Removed", diff.Removed},
		{"Changed", diff.Changed},
	} {
		if len(s.urls) == 0 {
			continue
		}
		md.H2(s.title)
		md.BulletList(s.urls...)
	}

	return md.Build()
}
