package view

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Digital-Shane/track-tidy/internal/core"
)

func rowSet(n int) []core.Row {
	rows := make([]core.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, core.Row{
			EntryID:       i + 1,
			Title:         fmt.Sprintf("Title %04d", i),
			Status:        core.CategoryCurrent,
			Progress:      i % 30,
			TotalEpisodes: core.KnownCount(i%30 + 1),
		})
	}
	return rows
}

func TestEvaluateSmallSetIsNotVirtualized(t *testing.T) {
	rows := rowSet(VirtualizeThreshold)
	w := NewEngine().Evaluate(rows, Query{Category: core.CategoryCurrent, ViewportRows: 10}, 1)

	if w.Total != VirtualizeThreshold {
		t.Fatalf("Evaluate() total = %d, want %d", w.Total, VirtualizeThreshold)
	}
	if len(w.Rows) != w.Total || w.Start != 0 || w.End != w.Total {
		t.Errorf("Evaluate() window = [%d,%d) len %d, want full set", w.Start, w.End, len(w.Rows))
	}
	if w.TopSpacer != 0 || w.BottomSpacer != 0 {
		t.Errorf("Evaluate() spacers = (%d, %d), want (0, 0)", w.TopSpacer, w.BottomSpacer)
	}
}

func TestEvaluateVirtualizesLargeSet(t *testing.T) {
	const rowHeight = 2
	rows := rowSet(500)
	q := Query{
		Category:     core.CategoryCurrent,
		ScrollOffset: 200,
		ViewportRows: 10,
	}
	w := NewEngine().Evaluate(rows, q, rowHeight)

	if w.Total != 500 {
		t.Fatalf("Evaluate() total = %d, want 500", w.Total)
	}
	wantStart, wantEnd := 200-Overscan, 200+10+Overscan
	if w.Start != wantStart || w.End != wantEnd {
		t.Errorf("Evaluate() window = [%d,%d), want [%d,%d)", w.Start, w.End, wantStart, wantEnd)
	}
	if len(w.Rows) != wantEnd-wantStart {
		t.Errorf("Evaluate() materialized %d rows, want %d", len(w.Rows), wantEnd-wantStart)
	}
	if w.Rows[0].Title != fmt.Sprintf("Title %04d", wantStart) {
		t.Errorf("Evaluate() first row = %q, want Title %04d", w.Rows[0].Title, wantStart)
	}

	// Spacers plus materialized rows must account for the full scroll height.
	height := w.TopSpacer + len(w.Rows)*rowHeight + w.BottomSpacer
	if height != w.Total*rowHeight {
		t.Errorf("Evaluate() total height = %d, want %d", height, w.Total*rowHeight)
	}
}

func TestEvaluateWindowEdges(t *testing.T) {
	rows := rowSet(300)
	engine := NewEngine()

	top := engine.Evaluate(rows, Query{Category: core.CategoryCurrent, ScrollOffset: 0, ViewportRows: 10}, 1)
	if top.Start != 0 || top.TopSpacer != 0 {
		t.Errorf("top window = [%d,%d) spacer %d, want start 0 spacer 0", top.Start, top.End, top.TopSpacer)
	}

	bottom := engine.Evaluate(rows, Query{Category: core.CategoryCurrent, ScrollOffset: 299, ViewportRows: 10}, 1)
	if bottom.End != 300 || bottom.BottomSpacer != 0 {
		t.Errorf("bottom window = [%d,%d) spacer %d, want end 300 spacer 0", bottom.Start, bottom.End, bottom.BottomSpacer)
	}

	beyond := engine.Evaluate(rows, Query{Category: core.CategoryCurrent, ScrollOffset: 5000, ViewportRows: 10}, 1)
	if beyond.End != 300 {
		t.Errorf("out-of-range offset window end = %d, want 300", beyond.End)
	}
}

func TestEvaluateFilters(t *testing.T) {
	scoreOf := func(s float64) *float64 { return &s }
	episodes := func(n int) *int { return &n }

	rows := []core.Row{
		{EntryID: 1, Title: "Cowboy Bebop", Status: core.CategoryCurrent, Format: "TV", Score: 9.5, TotalEpisodes: core.KnownCount(26)},
		{EntryID: 2, Title: "Cowboy Bebop: The Movie", Status: core.CategoryCompleted, Format: "MOVIE", Score: 8.0, TotalEpisodes: core.KnownCount(1)},
		{EntryID: 3, Title: "Trigun", Status: core.CategoryCurrent, Format: "TV", Score: 0, TotalEpisodes: core.Count{}},
	}
	engine := NewEngine()

	tests := []struct {
		name  string
		query Query
		want  []int
	}{
		{
			name:  "category",
			query: Query{Category: core.CategoryCurrent},
			want:  []int{1, 3},
		},
		{
			name:  "search is case insensitive substring",
			query: Query{Search: "bebop"},
			want:  []int{1, 2},
		},
		{
			name:  "format",
			query: Query{Format: "MOVIE"},
			want:  []int{2},
		},
		{
			name:  "score range excludes unscored",
			query: Query{ScoreMin: scoreOf(7.5)},
			want:  []int{1, 2},
		},
		{
			name:  "episode range excludes unknown totals",
			query: Query{EpisodesMin: episodes(2)},
			want:  []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := engine.Evaluate(rows, tt.query, 1)
			got := make([]int, 0, len(w.Rows))
			for _, r := range w.Rows {
				got = append(got, r.EntryID)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Evaluate(%s) entry ids mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

func TestEvaluateSortUnknownLast(t *testing.T) {
	rows := []core.Row{
		{EntryID: 1, Title: "b", Score: 0},
		{EntryID: 2, Title: "a", Score: 7.0},
		{EntryID: 3, Title: "c", Score: 9.0},
	}
	engine := NewEngine()

	asc := engine.Evaluate(rows, Query{SortKey: SortScore}, 1)
	if got := ids(asc.Rows); !equalInts(got, []int{2, 3, 1}) {
		t.Errorf("score asc order = %v, want [2 3 1]", got)
	}

	desc := engine.Evaluate(rows, Query{SortKey: SortScore, SortDesc: true}, 1)
	if got := ids(desc.Rows); !equalInts(got, []int{3, 2, 1}) {
		t.Errorf("score desc order = %v, want [3 2 1] (unscored still last)", got)
	}
}

func TestNextSort(t *testing.T) {
	key, desc := NextSort(SortTitle, false, SortTitle)
	if key != SortTitle || !desc {
		t.Errorf("NextSort same key = (%q, %v), want (title, true)", key, desc)
	}
	key, desc = NextSort(SortTitle, true, SortScore)
	if key != SortScore || desc {
		t.Errorf("NextSort new key = (%q, %v), want (score, false)", key, desc)
	}
}

func ids(rows []core.Row) []int {
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.EntryID)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
