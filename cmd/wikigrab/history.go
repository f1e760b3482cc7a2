package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/wikigrab/internal/config"
	"github.com/nao1215/wikigrab/internal/database"
	"github.com/nao1215/wikigrab/internal/model"
	"github.com/nao1215/wikigrab/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [owner/repo]",
		Short: "Show recorded crawls",
		Long: `History lists the crawls recorded with --save, newest first.

Examples:
  # List the latest crawls of every repository
  wikigrab history

  # List the crawls of one repository
  wikigrab history spf13/cobra

  # Show one crawl in detail
  wikigrab history --id 12

  # Show one crawl as JSON
  wikigrab history --id 12 --format json

  # List every repository in the database
  wikigrab history --repos

  # Delete a crawl
  wikigrab history --delete 12`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("id", "i", 0,
		"Show the crawl with this ID")
	cmd.Flags().StringP("format", "f", report.FormatText,
		"Output format for --id: text, json or markdown")
	cmd.Flags().IntP("limit", "l", config.DefaultHistoryLimit,
		"Maximum number of crawls listed (0 lists all)")
	cmd.Flags().Bool("repos", false,
		"List every repository with recorded crawls")
	cmd.Flags().Int64("delete", 0,
		"Delete the crawl with this ID")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var repository string
	if len(args) > 0 {
		// Validate arguments before opening the database.
		repo, err := model.ParseRepository(args[0])
		if err != nil {
			return fmt.Errorf("invalid repository: %w", err)
		}
		repository = repo.String()
	}

	id, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	listRepos, err := cmd.Flags().GetBool("repos")
	if err != nil {
		return err
	}
	deleteID, err := cmd.Flags().GetInt64("delete")
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
	out := cmd.OutOrStdout()

	switch {
	case deleteID > 0:
		if err := db.DeleteRun(ctx, deleteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted crawl %d\n", deleteID)
		return nil
	case listRepos:
		return listRepositories(ctx, db, out)
	case id > 0:
		return showRun(ctx, db, id, format, out)
	default:
		return listRuns(ctx, db, repository, limit, out)
	}
}

// listRepositories prints every repository with recorded crawls.
func listRepositories(ctx context.Context, db *database.HistoryDB, out io.Writer) error {
	repos, err := db.ListRepositories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	if len(repos) == 0 {
		fmt.Fprintln(out, "No crawls found in the database.")
		fmt.Fprintln(out, "\nUse 'wikigrab crawl --save <owner/repo>' to record a crawl.")
		return nil
	}

	fmt.Fprintf(out, "Repositories (%d):\n\n", len(repos))
	for _, repo := range repos {
		fmt.Fprintf(out, "  • %s\n", repo)
	}
	fmt.Fprintln(out, "\nUse 'wikigrab history <owner/repo>' to see the crawls of a repository.")
	return nil
}

// listRuns prints run metadata as a table.
func listRuns(ctx context.Context, db *database.HistoryDB, repository string, limit int, out io.Writer) error {
	runs, err := db.ListRuns(ctx, repository, limit)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(runs) == 0 {
		if repository != "" {
			fmt.Fprintf(out, "No crawl history found for %s\n", repository)
		} else {
			fmt.Fprintln(out, "No crawls found in the database.")
		}
		fmt.Fprintln(out, "\nUse 'wikigrab crawl --save <owner/repo>' to record a crawl.")
		return nil
	}

	fmt.Fprintf(out, "Crawl history (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-28s  %-17s  %s\n", "ID", "Date", "Repository", "Outcome", "Pages (ok/failed)")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 92))

	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-28s  %-17s  %d/%d\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Repository,
			run.Outcome.String(),
			run.Stats.Successful,
			run.Stats.Failed,
		)
	}

	fmt.Fprintln(out, "\nUse 'wikigrab history --id <id>' to see a crawl in detail.")
	fmt.Fprintln(out, "Use 'wikigrab compare <owner/repo>' to compare the latest two crawls.")
	return nil
}

// showRun prints one stored report with a report writer.
func showRun(ctx context.Context, db *database.HistoryDB, id int64, format string, out io.Writer) error {
	stored, err := db.GetRunByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrRunNotFound) {
			return fmt.Errorf("no crawl with ID %d (use 'wikigrab history' to list crawls)", id)
		}
		return err
	}

	w, err := report.NewWriter(format, out)
	if err != nil {
		return err
	}
	_, err = w.Write(stored)
	return err
}
