package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/wikigrab/internal/database"
	"github.com/nao1215/wikigrab/internal/model"
)

// storedReport builds a finished report whose pages carry the given digests,
// keyed by path below the repository's wiki.
func storedReport(repo string, started time.Time, digests map[string]string) *model.CrawlReport {
	r := model.NewCrawlReport(model.MustParseRepository(repo), "https://deepwiki.com/"+repo+"/")
	r.StartedAt = started
	r.FinishedAt = started.Add(2 * time.Second)
	r.Outcome = model.OutcomeSuccess
	for path, digest := range digests {
		r.Pages = append(r.Pages, model.PageResult{
			URL:        "https://deepwiki.com/" + repo + "/" + path,
			StatusCode: 200,
			Characters: 10,
			Digest:     digest,
		})
		r.Stats.Attempted++
		r.Stats.Successful++
	}
	return r
}

// seedHistory saves reports into a new database and returns its directory
// and the run IDs in save order.
func seedHistory(t *testing.T, reports ...*model.CrawlReport) (string, []int64) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ids := make([]int64, 0, len(reports))
	for _, r := range reports {
		id, err := db.SaveCrawlReport(context.Background(), r)
		if err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		ids = append(ids, id)
	}
	return dir, ids
}

func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := NewHistoryCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// TestHistoryCommand tests listing, showing and deleting recorded crawls.
func TestHistoryCommand(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("empty database", func(t *testing.T) {
		t.Parallel()

		out, err := runHistory(t, "--db-dir", t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No crawls found") {
			t.Errorf("expected empty message, got %q", out)
		}
	})

	t.Run("lists runs of one repository", func(t *testing.T) {
		t.Parallel()

		dir, ids := seedHistory(t,
			storedReport("spf13/cobra", base, map[string]string{"": "d1"}),
			storedReport("golang/go", base.Add(time.Hour), map[string]string{"": "d2"}),
		)

		out, err := runHistory(t, "--db-dir", dir, "spf13/cobra")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Crawl history (1)") {
			t.Errorf("expected one run, got %q", out)
		}
		if !strings.Contains(out, "spf13/cobra") || strings.Contains(out, "golang/go") {
			t.Errorf("expected only spf13/cobra, got %q", out)
		}
		if !strings.Contains(out, fmt.Sprintf("%d", ids[0])) {
			t.Errorf("expected run ID %d in output", ids[0])
		}
	})

	t.Run("lists repositories", func(t *testing.T) {
		t.Parallel()

		dir, _ := seedHistory(t,
			storedReport("spf13/cobra", base, map[string]string{"": "d1"}),
			storedReport("golang/go", base.Add(time.Hour), map[string]string{"": "d2"}),
		)

		out, err := runHistory(t, "--db-dir", dir, "--repos")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Repositories (2)") {
			t.Errorf("expected two repositories, got %q", out)
		}
	})

	t.Run("shows one run as JSON", func(t *testing.T) {
		t.Parallel()

		dir, ids := seedHistory(t, storedReport("spf13/cobra", base, map[string]string{"": "d1", "intro": "d2"}))

		out, err := runHistory(t, "--db-dir", dir, "--id", fmt.Sprintf("%d", ids[0]), "--format", "json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, `"repository": "spf13/cobra"`) {
			t.Errorf("expected JSON report, got %q", out)
		}
	})

	t.Run("unknown run ID", func(t *testing.T) {
		t.Parallel()

		_, err := runHistory(t, "--db-dir", t.TempDir(), "--id", "42")
		if err == nil || !strings.Contains(err.Error(), "no crawl with ID 42") {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("deletes a run", func(t *testing.T) {
		t.Parallel()

		dir, ids := seedHistory(t, storedReport("spf13/cobra", base, map[string]string{"": "d1"}))

		out, err := runHistory(t, "--db-dir", dir, "--delete", fmt.Sprintf("%d", ids[0]))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Deleted crawl") {
			t.Errorf("expected delete confirmation, got %q", out)
		}

		out, err = runHistory(t, "--db-dir", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No crawls found") {
			t.Errorf("expected empty history after delete, got %q", out)
		}
	})

	t.Run("invalid repository", func(t *testing.T) {
		t.Parallel()

		_, err := runHistory(t, "--db-dir", t.TempDir(), "not a repo")
		if err == nil || !strings.Contains(err.Error(), "invalid repository") {
			t.Errorf("expected invalid repository error, got %v", err)
		}
	})
}
