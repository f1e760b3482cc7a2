// Package notify reports crawl progress and the final result to the user.
//
// A Notifier receives one Progress call per fetched URL and exactly one
// Success or Failure once the document has been delivered or the crawl has
// given up. Terminal writes both to one stream, stderr in the CLI. On a TTY
// the progress line is rewritten in place and the final line is colored with
// fatih/color; otherwise every URL gets its own line. NO_COLOR turns color
// off.
//
// Recorder keeps notifications in memory for tests. Prefixed tags the final
// titles of one repository when a batch shares a single Notifier.
//
// # Usage
//
//	n := notify.NewTerminal(os.Stderr, notify.WithQuiet(quiet))
//	n.Progress("https://deepwiki.com/owner/repo/")
//	n.Success("Copied 12 pages", "owner/repo")
package notify
