package config

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is used for XDG directory paths.
	AppName = "wikigrab"

	// DefaultBaseURL is the wiki site crawled for a repository.
	DefaultBaseURL = "https://deepwiki.com"

	// DefaultConcurrency keeps five fetches in flight, enough to finish a
	// typical wiki in seconds without hammering the site.
	DefaultConcurrency = 5

	// DefaultTimeout bounds a whole crawl.
	DefaultTimeout = 10 * time.Minute

	// DefaultPageTimeout bounds one page fetch. Without it a single hanging
	// request would keep the crawl from ever completing.
	DefaultPageTimeout = 30 * time.Second

	// DefaultMaxBodySize limits how much of a page is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultSelector matches the documentation container of a wiki page.
	DefaultSelector = "div.prose-custom"

	// DefaultUserAgent identifies wikigrab in HTTP requests.
	DefaultUserAgent = "wikigrab/1.0 (+https://github.com/nao1215/wikigrab)"

	// DefaultHistoryLimit is how many runs `wikigrab history` lists.
	DefaultHistoryLimit = 20
)

// Extraction modes.
const (
	ExtractSelector    = "selector"
	ExtractReadability = "readability"
)

// Report formats for the crawl summary. An empty format prints no summary.
const (
	ReportText     = "text"
	ReportJSON     = "json"
	ReportMarkdown = "markdown"
)

// Config holds every option of a crawl invocation.
type Config struct {
	// Repository is the raw identifier given on the command line.
	Repository string

	// BaseURL is the wiki site; the seed is BaseURL/owner/repo/.
	BaseURL string

	// Concurrency is the maximum number of simultaneous fetches.
	Concurrency int

	// Timeout bounds the whole crawl. Zero disables the limit.
	Timeout time.Duration

	// PageTimeout bounds each fetch. Zero disables the limit.
	PageTimeout time.Duration

	// MaxPages caps the number of attempted pages. Zero means unlimited.
	MaxPages int

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// Selector is the CSS selector of the content container.
	Selector string

	// ExtractMode is ExtractSelector or ExtractReadability.
	ExtractMode string

	// UserAgent is sent with every request.
	UserAgent string

	// RateLimit is the maximum requests per second across all workers.
	// Zero means unlimited.
	RateLimit float64

	// RespectRobots filters links through the site's robots.txt.
	RespectRobots bool

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// Headers are sent with every request, robots.txt included.
	Headers map[string]string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches log output to JSON.
	LogJSON bool

	// Quiet suppresses progress lines.
	Quiet bool

	// ConfigFilePath is an explicit .wikigrab file. When empty the current
	// directory and then the home directory are searched.
	ConfigFilePath string

	// NoClipboard skips the system clipboard.
	NoClipboard bool

	// OutputFile also writes the document to this path.
	OutputFile string

	// OutputDir receives one document per repository in batch mode.
	OutputDir string

	// Stdout also prints the document to standard output.
	Stdout bool

	// ReportFormat prints a crawl summary in this format after the crawl.
	ReportFormat string

	// ReportFile also writes the summary to this file. Without ReportFormat
	// the file gets JSON and nothing is printed.
	ReportFile string

	// SaveToDB records the crawl in the history database.
	SaveToDB bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/wikigrab on Linux).
	DBDir string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultTimeout,
		PageTimeout: DefaultPageTimeout,
		MaxBodySize: DefaultMaxBodySize,
		Selector:    DefaultSelector,
		ExtractMode: ExtractSelector,
		UserAgent:   DefaultUserAgent,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for wikigrab.
// On Linux: ~/.local/share/wikigrab
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wikigrab.
// On Linux: ~/.config/wikigrab
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate returns the first invalid setting found.
func (c *Config) Validate() error {
	if c.Repository == "" {
		return ErrNoRepository
	}
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if c.PageTimeout < 0 {
		return ErrInvalidPageTimeout
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.ExtractMode != ExtractSelector && c.ExtractMode != ExtractReadability {
		return ErrInvalidExtractMode
	}
	switch c.ReportFormat {
	case "", ReportText, ReportJSON, ReportMarkdown:
	default:
		return ErrInvalidReportFormat
	}
	if !isHTTPURL(c.BaseURL) {
		return ErrInvalidBaseURL
	}
	for name := range c.Headers {
		if !validHeaderName(name) {
			return fmt.Errorf("%w: %q", ErrInvalidHeader, name)
		}
	}
	if c.NoClipboard && !c.Stdout && c.OutputFile == "" && c.OutputDir == "" {
		return ErrNoOutput
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ParseHeader splits a "Name: value" pair as given to --header. The name is
// returned in canonical form.
func ParseHeader(raw string) (string, string, error) {
	name, value, ok := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !ok || !validHeaderName(name) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidHeader, raw)
	}
	return http.CanonicalHeaderKey(name), strings.TrimSpace(value), nil
}

// validHeaderName reports whether name is a non-empty HTTP token.
func validHeaderName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r <= ' ' || r >= 0x7f || strings.ContainsRune(`"(),/:;<=>?@[\]{}`, r) {
			return false
		}
	}
	return true
}
