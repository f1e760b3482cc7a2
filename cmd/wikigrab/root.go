package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// reportedError wraps an error the user has already been notified about,
// so Execute exits non-zero without printing it again.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// NewRootCmd creates the root command for wikigrab.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wikigrab",
		Short: "Copy a repository's DeepWiki documentation to the clipboard",
		Long: `wikigrab crawls every DeepWiki page of a GitHub repository with a bounded
number of concurrent fetches, extracts the documentation text and copies it
to the clipboard as one document.

Each page becomes a block headed "## Page: <url>". Pages that fail to load
are counted and reported but never stop the crawl.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		var re *reportedError
		if !errors.As(err, &re) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
