// Package crawler walks the wiki pages of one repository and extracts their text.
//
// # Components
//
//   - Scope: the same-origin predicate, a plain prefix match on the seed URL
//   - Frontier: FIFO queue of URLs to visit plus the set of URLs already dequeued;
//     Dequeue stops handing out URLs once the page cap is reached
//   - Fetcher: HTTP GET with per-page timeout, body limit, charset decoding and rate limiting
//   - Extractor: turns a page body into text and outgoing links
//   - RobotsPolicy: optional robots.txt filter applied before enqueueing; each
//     robots.txt fetch has its own deadline and a failed fetch allows everything
//   - Spider: the coordinator that runs at most N fetches at a time
//
// # Concurrency
//
// The spider keeps a single shared Frontier. Workers run in an errgroup limited
// to N goroutines. Each worker dequeues, fetches, enqueues the in-scope links it
// found and then tries to start one extra worker per queued URL; the group
// refuses once N workers are running. A worker exits when the frontier is empty,
// so the crawl is complete exactly when the group's Wait returns.
//
// Page failures never abort a crawl. They are counted, logged at debug level
// and recorded in the result.
//
// # Usage
//
//	fetcher := crawler.NewFetcher(client, crawler.WithPageTimeout(30*time.Second))
//	spider := crawler.NewSpider(fetcher, crawler.WithConcurrency(5))
//	result, err := spider.Crawl(ctx, "https://deepwiki.com/owner/repo/")
package crawler
