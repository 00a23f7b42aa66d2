// Package view turns the canonical row set into exactly what a table
// viewport should draw: filtered, sorted, and windowed when the set is
// large.
package view

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Digital-Shane/track-tidy/internal/core"
)

// VirtualizeThreshold is the row count at and below which the whole result
// set is rendered; above it only the visible window plus overscan is
// materialized.
const VirtualizeThreshold = 120

// Overscan is the number of extra rows materialized on each side of the
// viewport so small scrolls don't immediately require a re-window.
const Overscan = 8

// SortKey names one sortable column.
type SortKey string

const (
	SortTitle    SortKey = "title"
	SortProgress SortKey = "progress"
	SortScore    SortKey = "score"
	SortFormat   SortKey = "format"
	SortEpisodes SortKey = "episodes"
)

// Query is one complete view request: which category tab, the active
// filters, the sort order, and the viewport geometry.
type Query struct {
	Category core.Category

	// Filters. Nil bounds mean unbounded; a set bound excludes rows whose
	// value is unknown.
	Search      string
	Format      string
	ScoreMin    *float64
	ScoreMax    *float64
	EpisodesMin *int
	EpisodesMax *int

	SortKey  SortKey
	SortDesc bool

	// Viewport geometry, in rows of the result set.
	ScrollOffset int
	ViewportRows int
}

// Window is the materialized answer. Rows holds only [Start, End) of the
// full result; TopSpacer and BottomSpacer are the pixel-equivalent heights
// (skipped rows times RowHeight) keeping the scrollbar honest.
type Window struct {
	Total int

	Start int
	End   int
	Rows  []core.Row

	TopSpacer    int
	BottomSpacer int
	RowHeight    int
}

// Engine evaluates queries. It carries the collator used for locale-aware
// title ordering; construct one per view and reuse it.
type Engine struct {
	collator *collate.Collator
}

// NewEngine returns a query engine with case-insensitive English collation.
func NewEngine() *Engine {
	return &Engine{collator: collate.New(language.English, collate.IgnoreCase)}
}

// Evaluate filters, sorts, and windows rows for q. The input slice is not
// mutated. rowHeight is the height of one rendered row in terminal cells
// and feeds the spacer computation.
func (e *Engine) Evaluate(rows []core.Row, q Query, rowHeight int) Window {
	if rowHeight < 1 {
		rowHeight = 1
	}

	result := e.filter(rows, q)
	e.sortRows(result, q)

	total := len(result)
	w := Window{Total: total, RowHeight: rowHeight}

	if total <= VirtualizeThreshold {
		w.End = total
		w.Rows = result
		return w
	}

	viewport := q.ViewportRows
	if viewport < 1 {
		viewport = 1
	}
	offset := q.ScrollOffset
	if offset < 0 {
		offset = 0
	}
	if offset > total-1 {
		offset = total - 1
	}

	start := offset - Overscan
	if start < 0 {
		start = 0
	}
	end := offset + viewport + Overscan
	if end > total {
		end = total
	}

	w.Start = start
	w.End = end
	w.Rows = result[start:end]
	w.TopSpacer = start * rowHeight
	w.BottomSpacer = (total - end) * rowHeight
	return w
}

func (e *Engine) filter(rows []core.Row, q Query) []core.Row {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]core.Row, 0, len(rows))
	for _, row := range rows {
		if q.Category != "" && row.Status != q.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(row.Title), search) {
			continue
		}
		if q.Format != "" && row.Format != q.Format {
			continue
		}
		if q.ScoreMin != nil && (row.Score == 0 || row.Score < *q.ScoreMin) {
			continue
		}
		if q.ScoreMax != nil && (row.Score == 0 || row.Score > *q.ScoreMax) {
			continue
		}
		if q.EpisodesMin != nil && (!row.TotalEpisodes.Known() || row.TotalEpisodes.Value() < *q.EpisodesMin) {
			continue
		}
		if q.EpisodesMax != nil && (!row.TotalEpisodes.Known() || row.TotalEpisodes.Value() > *q.EpisodesMax) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// sortRows orders rows by the query's sort key. Rows with an unknown or
// absent value for the key sort after rows with a known value regardless of
// direction; ties fall back to collated title, then entry ID, so the order
// is total and stable across evaluations.
func (e *Engine) sortRows(rows []core.Row, q Query) {
	key := q.SortKey
	if key == "" {
		key = SortTitle
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]

		aKnown, bKnown := sortValueKnown(a, key), sortValueKnown(b, key)
		if aKnown != bKnown {
			return aKnown
		}

		if aKnown {
			if c := e.compareKnown(a, b, key); c != 0 {
				if q.SortDesc {
					return c > 0
				}
				return c < 0
			}
		}

		if c := e.collator.CompareString(a.Title, b.Title); c != 0 {
			return c < 0
		}
		return a.EntryID < b.EntryID
	})
}

func sortValueKnown(r core.Row, key SortKey) bool {
	switch key {
	case SortScore:
		return r.Score != 0
	case SortFormat:
		return r.Format != ""
	case SortEpisodes:
		return r.TotalEpisodes.Known()
	default:
		return true
	}
}

// compareKnown orders two rows whose sort values are both known, returning
// a negative, zero, or positive comparison result.
func (e *Engine) compareKnown(a, b core.Row, key SortKey) int {
	switch key {
	case SortTitle:
		return e.collator.CompareString(a.Title, b.Title)
	case SortProgress:
		return a.Progress - b.Progress
	case SortScore:
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		}
		return 0
	case SortFormat:
		return strings.Compare(a.Format, b.Format)
	case SortEpisodes:
		return a.TotalEpisodes.Value() - b.TotalEpisodes.Value()
	default:
		return 0
	}
}

// NextSort returns the sort state after the user activates key: activating
// the current key flips the direction, activating a new key selects it
// ascending.
func NextSort(current SortKey, currentDesc bool, key SortKey) (SortKey, bool) {
	if current == key {
		return key, !currentDesc
	}
	return key, false
}
