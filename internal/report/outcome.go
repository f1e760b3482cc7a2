package report

import (
	"fmt"
	"strings"

	"github.com/nao1215/wikigrab/internal/model"
)

// BlockSeparator joins content blocks in the document.
const BlockSeparator = "\n"

// Classify derives the outcome of a finished crawl.
// A nil result means nothing was crawled and classifies as nothing extracted.
func Classify(result *model.CrawlResult) model.Outcome {
	if result == nil {
		return model.OutcomeNothingExtracted
	}
	failed := result.Stats.Failed > 0
	switch {
	case result.HasContent() && failed:
		return model.OutcomePartialSuccess
	case result.HasContent():
		return model.OutcomeSuccess
	case failed:
		return model.OutcomeFailed
	default:
		return model.OutcomeNothingExtracted
	}
}

// Document joins the content blocks in completion order.
func Document(result *model.CrawlResult) string {
	if result == nil {
		return ""
	}
	return strings.Join(result.Blocks, BlockSeparator)
}

// Message builds the title and detail of the final notification.
func Message(r *model.CrawlReport) (title, detail string) {
	stats := r.Stats
	pages := r.ContentPages()

	switch r.Outcome {
	case model.OutcomeSuccess:
		title = "Copied " + plural(pages, "page")
		detail = fmt.Sprintf("Wiki of %s: %s attempted", r.Repository, plural(stats.Attempted, "page"))
	case model.OutcomePartialSuccess:
		title = fmt.Sprintf("Copied %s (%d failed)", plural(pages, "page"), stats.Failed)
		detail = fmt.Sprintf("Wiki of %s: %d of %s could not be fetched",
			r.Repository, stats.Failed, plural(stats.Attempted, "page"))
	case model.OutcomeNothingExtracted:
		title = "No content extracted"
		detail = fmt.Sprintf("%s attempted, %d failed", plural(stats.Attempted, "page"), stats.Failed)
	case model.OutcomeFailed:
		title = "Crawl failed"
		detail = fmt.Sprintf("%d of %s failed", stats.Failed, plural(stats.Attempted, "page"))
	case model.OutcomeInvalidInput:
		title = "Invalid repository"
		detail = r.ErrorMessage
		if detail == "" {
			detail = model.ErrInvalidRepository.Error()
		}
		return title, detail
	default:
		return "Unknown result", r.ErrorMessage
	}

	switch {
	case r.TimedOut:
		detail += " (timed out, partial result)"
	case r.Cancelled:
		detail += " (cancelled, partial result)"
	}
	return title, detail
}

// plural formats n with the noun, adding "s" unless n is 1.
func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
