// Package report turns a finished crawl into its user-facing forms.
//
// Classify maps crawl statistics to a model.Outcome, Document joins the
// extracted blocks into the text that is copied to the clipboard, and Message
// builds the final notification. The writers render a crawl summary:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: structured JSON for scripts
//   - MarkdownWriter: Markdown tables for sharing
//
// Writers implement the Writer interface and can be combined with MultiWriter.
package report
