// Package main provides the entry point for the wikigrab CLI.
//
// wikigrab crawls the DeepWiki pages of a GitHub repository and copies the
// documentation text to the clipboard.
//
// Usage:
//
//	wikigrab crawl <owner/repo>
//	wikigrab crawl https://github.com/owner/repo
//
// See --help for all available options.
package main

// main is the entry point for wikigrab.
func main() {
	Execute()
}
