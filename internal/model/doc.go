// Package model defines the core data structures used throughout wikigrab.
//
// This package contains the following main types:
//   - Repository: A validated GitHub repository identifier
//   - CrawlResult: The raw outcome of one crawl (statistics, pages, content blocks)
//   - CrawlReport: A CrawlResult bound to its repository, timing and Outcome
//   - Outcome: The classification reported to the user when a crawl ends
//
// Models live in their own package so that crawler, report, pipeline and
// database can share them without import cycles. All of them serialize to
// JSON for report output and history storage.
package model
