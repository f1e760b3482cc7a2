package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/wikigrab/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeStatistics(md, report)
	w.writePages(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("wikigrab crawl: " + report.Repository)
	md.PlainText("")

	rows := [][]string{
		{"Repository", "`" + report.Repository + "`"},
	}
	// Invalid input keeps the raw identifier, which has no GitHub page.
	if repo, err := model.ParseRepository(report.Repository); err == nil {
		rows = append(rows, []string{"GitHub", repo.GitHubURL()})
	}
	rows = append(rows, [][]string{
		{"Seed URL", report.SeedURL},
		{"Date", report.StartedAt.Format(dateLayout)},
		{"Duration", report.Duration().Round(time.Millisecond).String()},
		{"Outcome", report.Outcome.String()},
		{"Status", statusText(report)},
	}...)
	if len(report.DeliveredTo) > 0 {
		rows = append(rows, []string{"Copied to", strings.Join(report.DeliveredTo, ", ")})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch report.Outcome {
	case model.OutcomeSuccess:
		md.Tip("Every attempted page was fetched.")
	case model.OutcomePartialSuccess:
		md.Warningf("%d page(s) could not be fetched; the document is incomplete.", report.Stats.Failed)
	case model.OutcomeNothingExtracted:
		md.Note("No page contained extractable content.")
	case model.OutcomeFailed, model.OutcomeInvalidInput:
		md.Cautionf("The crawl produced no document: %s", statusText(report))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeStatistics(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Statistics")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Attempted", strconv.Itoa(report.Stats.Attempted)},
			{"Successful", strconv.Itoa(report.Stats.Successful)},
			{"Failed", strconv.Itoa(report.Stats.Failed)},
			{"With content", strconv.Itoa(report.ContentPages())},
			{"Max in flight", strconv.Itoa(report.MaxInFlight)},
		},
	})
	md.PlainText("")

	if report.Stats.Attempted == 0 {
		return
	}

	withContent := report.ContentPages()
	empty := report.Stats.Successful - withContent
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page results"),
		piechart.WithShowData(true),
	)
	if withContent > 0 {
		chart.LabelAndIntValue("Content", uint64(withContent))
	}
	if empty > 0 {
		chart.LabelAndIntValue("Empty", uint64(empty))
	}
	if report.Stats.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(report.Stats.Failed))
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writePages(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Pages")
	md.PlainText("")

	if len(report.Pages) == 0 {
		md.PlainText("No pages were attempted.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Pages))
	for _, p := range report.Pages {
		status := "-"
		if p.StatusCode != 0 {
			status = strconv.Itoa(p.StatusCode)
		}
		result := "ok"
		if !p.Succeeded() {
			result = p.Error
		}
		rows = append(rows, []string{p.URL, status, strconv.Itoa(p.Characters), result})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Characters", "Result"},
		Rows:   rows,
	})
	md.PlainText("")
}
