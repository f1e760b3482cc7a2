// Package log builds the slog logger used across wikigrab.
//
// NewLogger returns a text or JSON logger wrapped in SecureHandler, which
// masks values stored under sensitive keys (cookie, authorization, token)
// and strips credentials and token query parameters from URL values before
// they reach the output. Crawled URLs are logged at debug level, and a proxy
// or wiki base URL configured with credentials must not leak into logs that
// get pasted into bug reports.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose, false)
//	slog.SetDefault(logger)
//	logger.Debug("page fetched", "url", "https://user:pw@example.com/?token=x")
//	// url=https://***REDACTED***@example.com/?token=***REDACTED***
package log
