// Package database stores crawl history in SQLite.
//
// Every saved run keeps its summary counts and the serialized report in
// crawl_runs, and one row per attempted URL in crawl_pages. The per-page
// digest lets two runs of the same repository be compared without keeping
// the page text itself.
//
// The driver is modernc.org/sqlite, which needs no cgo.
package database
