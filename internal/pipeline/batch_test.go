package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nao1215/wikigrab/internal/model"
)

// TestBatchProcessorOptions tests BatchProcessor option functions.
func TestBatchProcessorOptions(t *testing.T) {
	t.Parallel()

	t.Run("default concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor("", func(model.Repository) *Pipeline { return New() })
		if bp.concurrency != DefaultBatchConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultBatchConcurrency, bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("WithBatchConcurrency sets concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor("", func(model.Repository) *Pipeline { return New() }, WithBatchConcurrency(4))
		if bp.concurrency != 4 {
			t.Errorf("expected concurrency 4, got %d", bp.concurrency)
		}
	})

	t.Run("WithBatchConcurrency ignores invalid values", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor("", func(model.Repository) *Pipeline { return New() }, WithBatchConcurrency(0))
		if bp.concurrency != DefaultBatchConcurrency {
			t.Errorf("expected default concurrency, got %d", bp.concurrency)
		}
	})
}

func repos(t *testing.T, inputs ...string) []model.Repository {
	t.Helper()

	out := make([]model.Repository, 0, len(inputs))
	for _, in := range inputs {
		repo, err := model.ParseRepository(in)
		if err != nil {
			t.Fatalf("ParseRepository(%q): %v", in, err)
		}
		out = append(out, repo)
	}
	return out
}

// TestProcessBatch tests that each repository gets its own pipeline.
func TestProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("reports keep input order", func(t *testing.T) {
		t.Parallel()

		factory := func(repo model.Repository) *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "outcome",
				doFunc: func(_ context.Context, r *model.CrawlReport) error {
					if repo.Name() == "broken" {
						return errors.New("boom")
					}
					r.Outcome = model.OutcomeSuccess
					return nil
				},
			})
			return p
		}

		bp := NewBatchProcessor("https://deepwiki.com", factory, WithBatchConcurrency(2))
		reports, err := bp.ProcessBatch(context.Background(), repos(t, "a/one", "b/broken", "c/three"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(reports) != 3 {
			t.Fatalf("expected 3 reports, got %d", len(reports))
		}

		wantRepos := []string{"a/one", "b/broken", "c/three"}
		for i, r := range reports {
			if r.Repository != wantRepos[i] {
				t.Errorf("report %d: repository %q, want %q", i, r.Repository, wantRepos[i])
			}
		}
		if reports[0].SeedURL != "https://deepwiki.com/a/one/" {
			t.Errorf("SeedURL = %q", reports[0].SeedURL)
		}
		if reports[1].Error == nil {
			t.Error("failing pipeline should record its error")
		}
		if reports[2].Outcome != model.OutcomeSuccess {
			t.Errorf("third report outcome = %v", reports[2].Outcome)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor("", func(model.Repository) *Pipeline { return New() })
		_, err := bp.ProcessBatch(ctx, repos(t, "a/one", "b/two"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// TestProcessBatchWithCallback tests streaming results.
func TestProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen = make(map[int]string)
	)

	bp := NewBatchProcessor("", func(model.Repository) *Pipeline { return New() }, WithBatchConcurrency(3))
	err := bp.ProcessBatchWithCallback(context.Background(), repos(t, "a/one", "b/two", "c/three"),
		func(r *model.CrawlReport, i int) {
			mu.Lock()
			defer mu.Unlock()
			seen[i] = r.Repository
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 3 || seen[1] != "b/two" {
		t.Errorf("unexpected callbacks: %v", seen)
	}
}
