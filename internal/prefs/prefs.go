// Package prefs persists the table view's user preferences through a simple
// key/value store.
package prefs

import (
	"encoding/json"
	"strconv"
)

// Store is the host-provided key/value contract. Both operations are
// synchronous from the caller's perspective; Set failures are swallowed by
// implementations rather than propagated, so preference writes never block
// or break UI state updates.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Column identifies one table column. The set is closed; visibility
// requests for anything else are ignored.
type Column string

const (
	ColumnCover     Column = "cover"
	ColumnTitle     Column = "title"
	ColumnProgress  Column = "progress"
	ColumnScore     Column = "score"
	ColumnFormat    Column = "format"
	ColumnStatus    Column = "status"
	ColumnWatchInfo Column = "watch-info"
)

// Columns lists the known columns in display order.
func Columns() []Column {
	return []Column{
		ColumnCover,
		ColumnTitle,
		ColumnProgress,
		ColumnScore,
		ColumnFormat,
		ColumnStatus,
		ColumnWatchInfo,
	}
}

// ValidColumn reports whether id names a known column.
func ValidColumn(id Column) bool {
	for _, c := range Columns() {
		if c == id {
			return true
		}
	}
	return false
}

// Cover size bounds in cells; values outside are clamped, not rejected.
const (
	CoverSizeMin     = 28
	CoverSizeMax     = 92
	CoverSizeDefault = 48
)

const (
	keyColumns       = "table.columns"
	keyCoverSize     = "table.coverSize"
	legacyKeyWatched = "table.showWatchInfo"
)

// Preferences is the persisted slice of view state: per-column visibility
// and the cover thumbnail size.
type Preferences struct {
	ColumnVisibility map[Column]bool
	CoverSize        int
}

// Default returns the out-of-the-box preferences: every column visible,
// default cover size.
func Default() Preferences {
	vis := make(map[Column]bool, len(Columns()))
	for _, c := range Columns() {
		vis[c] = true
	}
	return Preferences{ColumnVisibility: vis, CoverSize: CoverSizeDefault}
}

// ClampCoverSize bounds a requested size to the fixed range.
func ClampCoverSize(size int) int {
	if size < CoverSizeMin {
		return CoverSizeMin
	}
	if size > CoverSizeMax {
		return CoverSizeMax
	}
	return size
}

// Load seeds preferences from the store, filling gaps with defaults. A
// legacy single-boolean "show watch info" value, from before per-column
// visibility existed, is migrated into the column map once and removed
// from further consideration by being overwritten with the new format.
func Load(store Store) Preferences {
	p := Default()

	if raw, ok := store.Get(keyColumns); ok {
		var vis map[Column]bool
		if err := json.Unmarshal([]byte(raw), &vis); err == nil {
			for col, visible := range vis {
				if ValidColumn(col) {
					p.ColumnVisibility[col] = visible
				}
			}
		}
	} else if raw, ok := store.Get(legacyKeyWatched); ok {
		if show, err := strconv.ParseBool(raw); err == nil {
			p.ColumnVisibility[ColumnWatchInfo] = show
		}
		p.saveColumns(store)
	}

	if raw, ok := store.Get(keyCoverSize); ok {
		if size, err := strconv.Atoi(raw); err == nil {
			p.CoverSize = ClampCoverSize(size)
		}
	}

	return p
}

// SetColumnVisibility applies and persists one column toggle. Unknown
// columns are ignored.
func (p *Preferences) SetColumnVisibility(store Store, col Column, visible bool) bool {
	if !ValidColumn(col) {
		return false
	}
	p.ColumnVisibility[col] = visible
	p.saveColumns(store)
	return true
}

// SetCoverSize clamps, applies, and persists the thumbnail size.
func (p *Preferences) SetCoverSize(store Store, size int) int {
	p.CoverSize = ClampCoverSize(size)
	store.Set(keyCoverSize, strconv.Itoa(p.CoverSize))
	return p.CoverSize
}

func (p *Preferences) saveColumns(store Store) {
	data, err := json.Marshal(p.ColumnVisibility)
	if err != nil {
		return
	}
	store.Set(keyColumns, string(data))
}

// MemStore is an in-memory Store for tests and for running without a
// persistence backend.
type MemStore map[string]string

func (m MemStore) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MemStore) Set(key, value string) {
	m[key] = value
}
