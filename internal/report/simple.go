package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/wikigrab/internal/model"
)

// SimpleWriter outputs a human-readable text summary.
type SimpleWriter struct {
	baseWriter

	// showPages lists every attempted page, not just the failures.
	showPages bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowPages lists every attempted page.
func WithShowPages(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showPages = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeStatistics(&sb, report)
	w.writePages(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         WIKIGRAB CRAWL\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Repository:  %s\n", report.Repository)
	fmt.Fprintf(sb, "Seed URL:    %s\n", report.SeedURL)
	fmt.Fprintf(sb, "Started:     %s\n", report.StartedAt.Format(dateLayout))
	fmt.Fprintf(sb, "Duration:    %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Outcome:     %s\n", report.Outcome)
	fmt.Fprintf(sb, "Status:      %s\n", statusText(report))
	if len(report.DeliveredTo) > 0 {
		fmt.Fprintf(sb, "Copied to:   %s\n", strings.Join(report.DeliveredTo, ", "))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeStatistics(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nSTATISTICS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  Attempted:     %d\n", report.Stats.Attempted)
	fmt.Fprintf(sb, "  Successful:    %d\n", report.Stats.Successful)
	fmt.Fprintf(sb, "  Failed:        %d\n", report.Stats.Failed)
	fmt.Fprintf(sb, "  With content:  %d\n", report.ContentPages())
	fmt.Fprintf(sb, "  Max in flight: %d\n", report.MaxInFlight)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, report *model.CrawlReport) {
	pages := make([]model.PageResult, 0, len(report.Pages))
	for _, p := range report.Pages {
		if w.showPages || !p.Succeeded() {
			pages = append(pages, p)
		}
	}
	if len(pages) == 0 {
		return
	}

	title := "FAILED PAGES"
	if w.showPages {
		title = "PAGES"
	}
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n" + title + "\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, p := range pages {
		if p.Succeeded() {
			fmt.Fprintf(sb, "  [+] %s (%d chars)\n", p.URL, p.Characters)
			continue
		}
		fmt.Fprintf(sb, "  [-] %s\n      %s\n", p.URL, p.Error)
	}
	sb.WriteString("\n")
}
