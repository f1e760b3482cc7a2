package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig documents the default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Concurrency is 5", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 5 {
			t.Errorf("expected Concurrency to be 5, got %d", cfg.Concurrency)
		}
	})

	t.Run("default PageTimeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.PageTimeout != 30*time.Second {
			t.Errorf("expected PageTimeout to be 30s, got %v", cfg.PageTimeout)
		}
	})

	t.Run("default Timeout is 10 minutes", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 10*time.Minute {
			t.Errorf("expected Timeout to be 10m, got %v", cfg.Timeout)
		}
	})

	t.Run("default BaseURL is deepwiki", func(t *testing.T) {
		t.Parallel()
		if cfg.BaseURL != "https://deepwiki.com" {
			t.Errorf("expected BaseURL to be https://deepwiki.com, got %q", cfg.BaseURL)
		}
	})

	t.Run("default Selector and ExtractMode", func(t *testing.T) {
		t.Parallel()
		if cfg.Selector != "div.prose-custom" || cfg.ExtractMode != ExtractSelector {
			t.Errorf("unexpected extraction defaults: %q %q", cfg.Selector, cfg.ExtractMode)
		}
	})

	t.Run("unlimited pages, no rate limit, clipboard on", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxPages != 0 || cfg.RateLimit != 0 || cfg.NoClipboard {
			t.Errorf("unexpected defaults: %+v", cfg)
		}
	})
}

// TestConfigValidate tests one validation rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Repository = "owner/repo"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"valid config", func(*Config) {}, nil},
		{"zero timeouts disable limits", func(c *Config) { c.Timeout = 0; c.PageTimeout = 0 }, nil},
		{"readability mode", func(c *Config) { c.ExtractMode = ExtractReadability }, nil},
		{"no clipboard with stdout", func(c *Config) { c.NoClipboard = true; c.Stdout = true }, nil},
		{"no repository", func(c *Config) { c.Repository = "" }, ErrNoRepository},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, ErrInvalidConcurrency},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, ErrInvalidTimeout},
		{"negative page timeout", func(c *Config) { c.PageTimeout = -time.Second }, ErrInvalidPageTimeout},
		{"negative max pages", func(c *Config) { c.MaxPages = -1 }, ErrInvalidMaxPages},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"negative rate", func(c *Config) { c.RateLimit = -0.5 }, ErrInvalidRateLimit},
		{"unknown extract mode", func(c *Config) { c.ExtractMode = "magic" }, ErrInvalidExtractMode},
		{"unknown report format", func(c *Config) { c.ReportFormat = "xml" }, ErrInvalidReportFormat},
		{"relative base url", func(c *Config) { c.BaseURL = "deepwiki.com" }, ErrInvalidBaseURL},
		{"ftp base url", func(c *Config) { c.BaseURL = "ftp://deepwiki.com" }, ErrInvalidBaseURL},
		{"no clipboard with output dir", func(c *Config) { c.NoClipboard = true; c.OutputDir = "out" }, nil},
		{"nowhere to deliver", func(c *Config) { c.NoClipboard = true }, ErrNoOutput},
		{"valid header", func(c *Config) { c.Headers = map[string]string{"Cookie": "a=b"} }, nil},
		{"header name with space", func(c *Config) { c.Headers = map[string]string{"X Token": "v"} }, ErrInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestLoadConfigFile tests reading the YAML file.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.wikigrab")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".wikigrab")
		content := `concurrency: 8
timeout: 2m
pageTimeout: 45s
maxPages: 200
selector: "article.docs"
extract: readability
userAgent: "custom/1.0"
baseURL: "http://127.0.0.1:8080"
rateLimit: 2.5
respectRobots: true
proxy: "127.0.0.1:1080"
save: true
report: markdown
headers:
  Cookie: "session=abc"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		f, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		f.Apply(cfg, nil)

		if cfg.Concurrency != 8 {
			t.Errorf("Concurrency = %d", cfg.Concurrency)
		}
		if cfg.Timeout != 2*time.Minute || cfg.PageTimeout != 45*time.Second {
			t.Errorf("Timeout = %v, PageTimeout = %v", cfg.Timeout, cfg.PageTimeout)
		}
		if cfg.MaxPages != 200 || cfg.RateLimit != 2.5 {
			t.Errorf("MaxPages = %d, RateLimit = %v", cfg.MaxPages, cfg.RateLimit)
		}
		if cfg.Selector != "article.docs" || cfg.ExtractMode != ExtractReadability {
			t.Errorf("Selector = %q, ExtractMode = %q", cfg.Selector, cfg.ExtractMode)
		}
		if cfg.UserAgent != "custom/1.0" || cfg.BaseURL != "http://127.0.0.1:8080" {
			t.Errorf("UserAgent = %q, BaseURL = %q", cfg.UserAgent, cfg.BaseURL)
		}
		if !cfg.RespectRobots || !cfg.SaveToDB || cfg.ProxyAddress != "127.0.0.1:1080" {
			t.Errorf("RespectRobots = %v, SaveToDB = %v, ProxyAddress = %q", cfg.RespectRobots, cfg.SaveToDB, cfg.ProxyAddress)
		}
		if cfg.ReportFormat != ReportMarkdown {
			t.Errorf("ReportFormat = %q", cfg.ReportFormat)
		}
		if cfg.Headers["Cookie"] != "session=abc" {
			t.Errorf("Headers = %v", cfg.Headers)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".wikigrab")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFileApply tests flag precedence over file values.
func TestFileApply(t *testing.T) {
	t.Parallel()

	concurrency := 9
	zero := 0
	robots := true
	f := &File{
		Concurrency:   &concurrency,
		MaxPages:      &zero,
		Selector:      "main",
		RespectRobots: &robots,
	}

	t.Run("flags win", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Concurrency = 2
		cfg.MaxPages = 10
		f.Apply(cfg, func(flag string) bool {
			return flag == FlagConcurrency || flag == FlagMaxPages
		})

		if cfg.Concurrency != 2 {
			t.Errorf("Concurrency = %d, flag value should win", cfg.Concurrency)
		}
		if cfg.MaxPages != 10 {
			t.Errorf("MaxPages = %d, flag value should win", cfg.MaxPages)
		}
		if cfg.Selector != "main" || !cfg.RespectRobots {
			t.Errorf("unset flags should take file values: %q %v", cfg.Selector, cfg.RespectRobots)
		}
	})

	t.Run("explicit zero is applied", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.MaxPages = 10
		f.Apply(cfg, func(string) bool { return false })
		if cfg.MaxPages != 0 {
			t.Errorf("MaxPages = %d, expected explicit 0 from file", cfg.MaxPages)
		}
	})

	t.Run("absent keys keep defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		(&File{}).Apply(cfg, nil)
		if cfg.Concurrency != DefaultConcurrency || cfg.Selector != DefaultSelector {
			t.Errorf("defaults changed: %+v", cfg)
		}
		var nilFile *File
		nilFile.Apply(cfg, nil)
	})

	t.Run("headers merge and flag headers win", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Headers = map[string]string{"Cookie": "from=flag"}
		(&File{Headers: map[string]string{
			"cookie":        "from=file",
			"authorization": "Bearer abc",
		}}).Apply(cfg, nil)

		if cfg.Headers["Cookie"] != "from=flag" {
			t.Errorf("Cookie = %q, expected the flag value", cfg.Headers["Cookie"])
		}
		if cfg.Headers["Authorization"] != "Bearer abc" {
			t.Errorf("Authorization = %q, expected the file value", cfg.Headers["Authorization"])
		}
		if len(cfg.Headers) != 2 {
			t.Errorf("Headers = %v, expected 2 entries", cfg.Headers)
		}
	})
}

// TestParseHeader tests the --header value format.
func TestParseHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw       string
		wantName  string
		wantValue string
		wantErr   bool
	}{
		{raw: "Cookie: session=abc", wantName: "Cookie", wantValue: "session=abc"},
		{raw: "x-api-key:secret", wantName: "X-Api-Key", wantValue: "secret"},
		{raw: "Authorization: Bearer a:b", wantName: "Authorization", wantValue: "Bearer a:b"},
		{raw: "X-Empty:", wantName: "X-Empty", wantValue: ""},
		{raw: "no-colon", wantErr: true},
		{raw: ": value", wantErr: true},
		{raw: "Bad Name: value", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			name, value, err := ParseHeader(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidHeader) {
					t.Errorf("ParseHeader(%q) error = %v, expected ErrInvalidHeader", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHeader(%q) error = %v", tt.raw, err)
			}
			if name != tt.wantName || value != tt.wantValue {
				t.Errorf("ParseHeader(%q) = %q, %q; expected %q, %q", tt.raw, name, value, tt.wantName, tt.wantValue)
			}
		})
	}
}

// TestFindConfigFile tests the search order.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("concurrency: 2\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{"data": XDGDataDir(), "config": XDGConfigDir()} {
		if dir == "" {
			t.Errorf("expected non-empty XDG %s dir", name)
		}
		if filepath.Base(dir) != AppName {
			t.Errorf("XDG %s dir %q should end with %q", name, dir, AppName)
		}
	}
}
