package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/wikigrab/internal/model"
)

// JSONWriter outputs reports in JSON format, one document per report.
// It is the format for scripts and for --report-file without --report.
//
// The document text is never included; the per-page results are. Several
// reports written to one stream form a sequence of JSON values, which
// decoders such as jq read one by one.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output. When false, output is compact.
	indent bool

	// indentPrefix starts every line of indented output.
	indentPrefix string

	// indentString is repeated once per nesting level.
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report as one JSON document followed by a newline.
func (w *JSONWriter) Write(report *model.CrawlReport) (int, error) {
	data, err := Marshal(report, w.indent, w.indentPrefix, w.indentString)
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}

// Marshal encodes a report, indented when indent is true.
// The outcome is encoded by name, for example "partial_success", and a
// pipeline error appears only as the "error" string.
func Marshal(report *model.CrawlReport, indent bool, prefix, indentString string) ([]byte, error) {
	if indent {
		return json.MarshalIndent(report, prefix, indentString)
	}
	return json.Marshal(report)
}
