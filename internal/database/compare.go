package database

import (
	"context"
	"fmt"
	"sort"
)

// PageDiff lists how the pages of two runs differ.
type PageDiff struct {
	// FromID and ToID are the compared run IDs.
	FromID int64 `json:"from_id"`
	ToID   int64 `json:"to_id"`

	// Added are URLs with content only in the newer run.
	Added []string `json:"added"`

	// Removed are URLs with content only in the older run.
	Removed []string `json:"removed"`

	// Changed are URLs present in both runs whose digest differs.
	Changed []string `json:"changed"`

	// Unchanged counts URLs with the same digest in both runs.
	Unchanged int `json:"unchanged"`
}

// HasChanges reports whether anything was added, removed or changed.
func (d *PageDiff) HasChanges() bool {
	return len(d.Added)+len(d.Removed)+len(d.Changed) > 0
}

// CompareRuns compares the extracted content of two runs by page digest.
// Pages without content are ignored on both sides.
func (hdb *HistoryDB) CompareRuns(ctx context.Context, fromID, toID int64) (*PageDiff, error) {
	from, err := hdb.contentDigests(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := hdb.contentDigests(ctx, toID)
	if err != nil {
		return nil, err
	}
	return DiffDigests(fromID, toID, from, to), nil
}

// DiffDigests compares two URL to digest maps.
func DiffDigests(fromID, toID int64, from, to map[string]string) *PageDiff {
	diff := &PageDiff{
		FromID:  fromID,
		ToID:    toID,
		Added:   []string{},
		Removed: []string{},
		Changed: []string{},
	}
	for url, digest := range to {
		old, ok := from[url]
		switch {
		case !ok:
			diff.Added = append(diff.Added, url)
		case old != digest:
			diff.Changed = append(diff.Changed, url)
		default:
			diff.Unchanged++
		}
	}
	for url := range from {
		if _, ok := to[url]; !ok {
			diff.Removed = append(diff.Removed, url)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Changed)
	return diff
}

func (hdb *HistoryDB) contentDigests(ctx context.Context, runID int64) (map[string]string, error) {
	if _, err := hdb.GetRunByID(ctx, runID); err != nil {
		return nil, err
	}
	pages, err := hdb.GetRunPages(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pages of run %d: %w", runID, err)
	}
	digests := make(map[string]string, len(pages))
	for _, p := range pages {
		if p.Characters > 0 && p.Digest != "" {
			digests[p.URL] = p.Digest
		}
	}
	return digests, nil
}
