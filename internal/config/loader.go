package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name searched for.
const DefaultConfigFile = ".wikigrab"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the content of a .wikigrab file. Pointer fields distinguish an
// absent key from an explicit zero.
type File struct {
	Concurrency   *int              `yaml:"concurrency,omitempty"`
	Timeout       *time.Duration    `yaml:"timeout,omitempty"`
	PageTimeout   *time.Duration    `yaml:"pageTimeout,omitempty"`
	MaxPages      *int              `yaml:"maxPages,omitempty"`
	Selector      string            `yaml:"selector,omitempty"`
	Extract       string            `yaml:"extract,omitempty"`
	UserAgent     string            `yaml:"userAgent,omitempty"`
	BaseURL       string            `yaml:"baseURL,omitempty"`
	RateLimit     *float64          `yaml:"rateLimit,omitempty"`
	RespectRobots *bool             `yaml:"respectRobots,omitempty"`
	Proxy         string            `yaml:"proxy,omitempty"`
	Headers       map[string]string `yaml:"headers,omitempty"`
	Save          *bool             `yaml:"save,omitempty"`
	Report        string            `yaml:"report,omitempty"`
}

// Flag names a File key can be overridden by.
const (
	FlagConcurrency   = "concurrency"
	FlagTimeout       = "timeout"
	FlagPageTimeout   = "page-timeout"
	FlagMaxPages      = "max-pages"
	FlagSelector      = "selector"
	FlagExtract       = "extract"
	FlagUserAgent     = "user-agent"
	FlagBaseURL       = "base-url"
	FlagRate          = "rate"
	FlagRespectRobots = "respect-robots"
	FlagProxy         = "proxy"
	FlagHeader        = "header"
	FlagSave          = "save"
	FlagReport        = "report"
)

// Apply copies the file values into cfg. changed reports whether a flag was
// set on the command line; such values are left alone. A nil changed
// applies every value.
func (f *File) Apply(cfg *Config, changed func(flag string) bool) {
	if f == nil {
		return
	}
	use := func(flag string) bool {
		return changed == nil || !changed(flag)
	}

	if f.Concurrency != nil && use(FlagConcurrency) {
		cfg.Concurrency = *f.Concurrency
	}
	if f.Timeout != nil && use(FlagTimeout) {
		cfg.Timeout = *f.Timeout
	}
	if f.PageTimeout != nil && use(FlagPageTimeout) {
		cfg.PageTimeout = *f.PageTimeout
	}
	if f.MaxPages != nil && use(FlagMaxPages) {
		cfg.MaxPages = *f.MaxPages
	}
	if f.Selector != "" && use(FlagSelector) {
		cfg.Selector = f.Selector
	}
	if f.Extract != "" && use(FlagExtract) {
		cfg.ExtractMode = f.Extract
	}
	if f.UserAgent != "" && use(FlagUserAgent) {
		cfg.UserAgent = f.UserAgent
	}
	if f.BaseURL != "" && use(FlagBaseURL) {
		cfg.BaseURL = f.BaseURL
	}
	if f.RateLimit != nil && use(FlagRate) {
		cfg.RateLimit = *f.RateLimit
	}
	if f.RespectRobots != nil && use(FlagRespectRobots) {
		cfg.RespectRobots = *f.RespectRobots
	}
	if f.Proxy != "" && use(FlagProxy) {
		cfg.ProxyAddress = f.Proxy
	}
	// Headers merge by name; a --header of the same name wins.
	for name, value := range f.Headers {
		if _, set := cfg.Headers[http.CanonicalHeaderKey(name)]; set {
			continue
		}
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		cfg.Headers[http.CanonicalHeaderKey(name)] = value
	}
	if f.Save != nil && use(FlagSave) {
		cfg.SaveToDB = *f.Save
	}
	if f.Report != "" && use(FlagReport) {
		cfg.ReportFormat = f.Report
	}
}

// LoadConfigFile reads a YAML configuration file.
// A missing file returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile returns configPath if it exists, otherwise the first
// .wikigrab found in the current directory, the XDG config directory or the
// home directory. It returns "" when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
