// Package collection turns the remote library tree into a flat, title-sorted
// row set.
package collection

import (
	"context"
	"fmt"
	"sort"

	"github.com/Digital-Shane/track-tidy/internal/core"
	"github.com/Digital-Shane/track-tidy/internal/tracker"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Loader walks every category list of the remote library and projects each
// entry into a Row. Entries that cannot be projected are skipped; titles may
// legitimately repeat across categories, so no deduplication happens here.
type Loader struct {
	client   tracker.Client
	collator *collate.Collator
}

// NewLoader constructs a Loader over the given tracking-service client.
func NewLoader(client tracker.Client) *Loader {
	return &Loader{
		client:   client,
		collator: collate.New(language.English, collate.IgnoreCase),
	}
}

// Load fetches the library and returns the projected rows sorted by title
// using locale-aware, case-insensitive comparison. The source's per-list
// ordering is not trusted; the full set is re-sorted every time, so two
// loads over identical upstream data yield identically ordered results.
func (l *Loader) Load(ctx context.Context) ([]core.Row, error) {
	lib, err := l.client.Library(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch library: %w", err)
	}

	var rows []core.Row
	for i := range lib.Lists {
		list := &lib.Lists[i]
		fallback, _ := core.NormalizeStatus(listStatus(list))
		for j := range list.Entries {
			if row, ok := core.ProjectRow(&list.Entries[j], fallback); ok {
				rows = append(rows, row)
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if c := l.collator.CompareString(rows[i].Title, rows[j].Title); c != 0 {
			return c < 0
		}
		return rows[i].EntryID < rows[j].EntryID
	})

	return rows, nil
}

func listStatus(list *tracker.List) string {
	s, _ := list.Status.(string)
	return s
}
