package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoRepository is returned when no repository identifier was given.
	ErrNoRepository = errors.New("no repository specified: provide owner/repo or a GitHub URL")

	// ErrInvalidConcurrency is returned when the concurrency is below 1.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidTimeout is returned for a negative crawl timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidPageTimeout is returned for a negative page timeout.
	ErrInvalidPageTimeout = errors.New("invalid page timeout: must be non-negative")

	// ErrInvalidMaxPages is returned for a negative page cap.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxBodySize is returned for a negative body limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidRateLimit is returned for a negative request rate.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidExtractMode is returned for an unknown extraction mode.
	ErrInvalidExtractMode = errors.New("invalid extract mode: must be selector or readability")

	// ErrInvalidReportFormat is returned for an unknown report format.
	ErrInvalidReportFormat = errors.New("invalid report format: must be text, json or markdown")

	// ErrInvalidBaseURL is returned when the wiki base URL is not http(s).
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidHeader is returned for a header that is not "Name: value".
	ErrInvalidHeader = errors.New(`invalid header: expected "Name: value"`)

	// ErrNoOutput is returned when the clipboard is disabled and no other
	// destination was chosen.
	ErrNoOutput = errors.New("no output: --no-clipboard requires --output or --stdout")
)
