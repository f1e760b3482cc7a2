package report

import (
	"strings"
	"testing"

	"github.com/nao1215/wikigrab/internal/model"
)

// TestClassify tests the outcome decision table.
func TestClassify(t *testing.T) {
	t.Parallel()

	block := []string{"## Page: u\n\ntext"}

	testCases := []struct {
		name     string
		result   *model.CrawlResult
		expected model.Outcome
	}{
		{"nil result", nil, model.OutcomeNothingExtracted},
		{
			"content without failures",
			&model.CrawlResult{Stats: model.CrawlStats{Attempted: 3, Successful: 3}, Blocks: block},
			model.OutcomeSuccess,
		},
		{
			"content with failures",
			&model.CrawlResult{Stats: model.CrawlStats{Attempted: 3, Successful: 2, Failed: 1}, Blocks: block},
			model.OutcomePartialSuccess,
		},
		{
			"no content no failures",
			&model.CrawlResult{Stats: model.CrawlStats{Attempted: 2, Successful: 2}},
			model.OutcomeNothingExtracted,
		},
		{
			"no content with failures",
			&model.CrawlResult{Stats: model.CrawlStats{Attempted: 1, Failed: 1}},
			model.OutcomeFailed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.result); got != tc.expected {
				t.Errorf("Classify() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestDocument tests that blocks are joined with a newline.
func TestDocument(t *testing.T) {
	t.Parallel()

	result := &model.CrawlResult{Blocks: []string{"## Page: a\n\nA", "## Page: b\n\nB", "## Page: c\n\nC"}}
	expected := "## Page: a\n\nA\n## Page: b\n\nB\n## Page: c\n\nC"
	if got := Document(result); got != expected {
		t.Errorf("Document() = %q, expected %q", got, expected)
	}
	if Document(nil) != "" || Document(&model.CrawlResult{}) != "" {
		t.Error("empty result should give an empty document")
	}
}

// TestMessage tests the final notification text.
func TestMessage(t *testing.T) {
	t.Parallel()

	contentPages := []model.PageResult{{URL: "a", Characters: 5}, {URL: "b", Characters: 7}, {URL: "c"}}

	testCases := []struct {
		name         string
		report       *model.CrawlReport
		wantTitle    string
		wantInDetail []string
	}{
		{
			name: "success",
			report: &model.CrawlReport{
				Repository: "o/r", Outcome: model.OutcomeSuccess,
				Stats: model.CrawlStats{Attempted: 3, Successful: 3}, Pages: contentPages,
			},
			wantTitle:    "Copied 2 pages",
			wantInDetail: []string{"o/r", "3 pages attempted"},
		},
		{
			name: "single page",
			report: &model.CrawlReport{
				Repository: "o/r", Outcome: model.OutcomeSuccess,
				Stats: model.CrawlStats{Attempted: 1, Successful: 1},
				Pages: []model.PageResult{{URL: "a", Characters: 1}},
			},
			wantTitle:    "Copied 1 page",
			wantInDetail: []string{"1 page attempted"},
		},
		{
			name: "partial success",
			report: &model.CrawlReport{
				Repository: "o/r", Outcome: model.OutcomePartialSuccess,
				Stats: model.CrawlStats{Attempted: 4, Successful: 3, Failed: 1}, Pages: contentPages,
			},
			wantTitle:    "Copied 2 pages (1 failed)",
			wantInDetail: []string{"1 of 4 pages"},
		},
		{
			name: "nothing extracted",
			report: &model.CrawlReport{
				Outcome: model.OutcomeNothingExtracted,
				Stats:   model.CrawlStats{Attempted: 2, Successful: 2},
			},
			wantTitle:    "No content extracted",
			wantInDetail: []string{"2 pages attempted, 0 failed"},
		},
		{
			name: "failed",
			report: &model.CrawlReport{
				Outcome: model.OutcomeFailed,
				Stats:   model.CrawlStats{Attempted: 5, Successful: 2, Failed: 3},
			},
			wantTitle:    "Crawl failed",
			wantInDetail: []string{"3 of 5 pages failed"},
		},
		{
			name: "invalid input",
			report: &model.CrawlReport{
				Outcome:      model.OutcomeInvalidInput,
				ErrorMessage: `invalid repository identifier: "not a repo"`,
			},
			wantTitle:    "Invalid repository",
			wantInDetail: []string{"not a repo"},
		},
		{
			name: "timed out",
			report: &model.CrawlReport{
				Repository: "o/r", Outcome: model.OutcomeSuccess, TimedOut: true,
				Stats: model.CrawlStats{Attempted: 3, Successful: 3}, Pages: contentPages,
			},
			wantTitle:    "Copied 2 pages",
			wantInDetail: []string{"timed out"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			title, detail := Message(tc.report)
			if title != tc.wantTitle {
				t.Errorf("title = %q, expected %q", title, tc.wantTitle)
			}
			for _, want := range tc.wantInDetail {
				if !strings.Contains(detail, want) {
					t.Errorf("detail %q does not contain %q", detail, want)
				}
			}
		})
	}
}
