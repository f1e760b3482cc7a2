// Package pipeline runs one wikigrab invocation as a sequence of steps.
//
// A pipeline crawls the wiki, then hands the resulting CrawlReport to the
// delivery steps (clipboard, file, stdout), the history step and the report
// writer. Each step receives the report filled in by the steps before it.
//
// BatchProcessor runs one pipeline per repository with errgroup bounding how
// many run at once.
package pipeline
