package crawler

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// DefaultContentSelector matches the element that wraps the generated
// documentation on a wiki page.
const DefaultContentSelector = "div.prose-custom"

// Extraction modes accepted by NewExtractor.
const (
	ExtractSelector    = "selector"
	ExtractReadability = "readability"
)

// PageContent is what an Extractor found on a page.
type PageContent struct {
	// Text is the normalized text of the content container.
	// Empty when the page has no container or the container has no text.
	Text string

	// Links are the absolute, fragment-free targets of every <a href> on the
	// page, in document order, without duplicates. Scope filtering is left to
	// the caller.
	Links []string
}

// Extractor turns a page body into text and links.
type Extractor interface {
	Extract(pageURL string, body io.Reader) (*PageContent, error)
}

// NewExtractor returns the extractor for mode. An empty mode selects
// ExtractSelector.
func NewExtractor(mode, selector string) (Extractor, error) {
	switch mode {
	case "", ExtractSelector:
		return NewSelectorExtractor(selector), nil
	case ExtractReadability:
		return NewReadabilityExtractor(), nil
	default:
		return nil, fmt.Errorf("unknown extraction mode %q", mode)
	}
}

// SelectorExtractor takes the text of the first element matching a CSS selector.
type SelectorExtractor struct {
	selector string
}

// NewSelectorExtractor creates a SelectorExtractor. An empty selector selects
// DefaultContentSelector.
func NewSelectorExtractor(selector string) *SelectorExtractor {
	if strings.TrimSpace(selector) == "" {
		selector = DefaultContentSelector
	}
	return &SelectorExtractor{selector: selector}
}

// Selector returns the CSS selector in use.
func (e *SelectorExtractor) Selector() string {
	return e.selector
}

// Extract implements Extractor.
func (e *SelectorExtractor) Extract(pageURL string, body io.Reader) (*PageContent, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	content := &PageContent{Links: collectLinks(doc, base)}
	if container := doc.Find(e.selector).First(); container.Length() > 0 {
		content.Text = selectionText(container)
	}
	return content, nil
}

// ReadabilityExtractor locates the main article with go-readability instead of
// a fixed selector.
type ReadabilityExtractor struct{}

// NewReadabilityExtractor creates a ReadabilityExtractor.
func NewReadabilityExtractor() *ReadabilityExtractor {
	return &ReadabilityExtractor{}
}

// Extract implements Extractor.
func (e *ReadabilityExtractor) Extract(pageURL string, body io.Reader) (*PageContent, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	content := &PageContent{Links: collectLinks(doc, base)}

	article, err := readability.FromReader(bytes.NewReader(raw), base)
	if err != nil {
		// No readable article is an empty page, not a failure.
		return content, nil
	}

	articleDoc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article: %w", err)
	}
	content.Text = selectionText(articleDoc.Selection)
	return content, nil
}

// ignoredSchemes are link targets that can never be wiki pages.
var ignoredSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

// collectLinks resolves every anchor href against base.
func collectLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	links := make([]string, 0)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		lower := strings.ToLower(href)
		for _, scheme := range ignoredSchemes {
			if strings.HasPrefix(lower, scheme) {
				return
			}
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		resolved.Fragment = ""
		resolved.RawFragment = ""

		link := resolved.String()
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})

	return links
}

// blockElements start a new line in extracted text.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "details": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "summary": true,
	"table": true, "tr": true, "ul": true,
}

// skippedElements never contribute text.
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "svg": true,
}

// selectionText renders the visible text of a selection with one line per
// block element, then normalizes it.
func selectionText(sel *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range sel.Nodes {
		writeNodeText(&sb, n, false)
	}
	return normalizeText(sb.String())
}

// writeNodeText collapses whitespace in text nodes the way a browser does,
// except inside <pre>.
func writeNodeText(sb *strings.Builder, n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre {
			sb.WriteString(n.Data)
		} else {
			sb.WriteString(collapseSpace(n.Data))
		}
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
		switch n.Data {
		case "br":
			sb.WriteByte('\n')
			return
		case "td", "th":
			sb.WriteByte(' ')
		case "pre":
			pre = true
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		sb.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNodeText(sb, c, pre)
	}
	if block {
		sb.WriteByte('\n')
	}
}

// collapseSpace replaces each run of whitespace with one space, keeping a
// single leading or trailing space so adjacent inline text stays separated.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if isSpaceByte(s[0]) {
		out = " " + out
	}
	if isSpaceByte(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

// normalizeText converts text to NFC, collapses runs of spaces inside each
// line and keeps at most one blank line between paragraphs.
func normalizeText(text string) string {
	text = norm.NFC.String(text)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
