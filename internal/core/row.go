package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Category is one of the five canonical watch-list states. Every row carries
// exactly one.
type Category string

const (
	CategoryCurrent   Category = "CURRENT"
	CategoryCompleted Category = "COMPLETED"
	CategoryPaused    Category = "PAUSED"
	CategoryDropped   Category = "DROPPED"
	CategoryPlanning  Category = "PLANNING"
)

// Categories lists the canonical categories in display order.
func Categories() []Category {
	return []Category{
		CategoryCurrent,
		CategoryCompleted,
		CategoryPaused,
		CategoryDropped,
		CategoryPlanning,
	}
}

// EpisodeState classifies one episode in a row's timeline.
type EpisodeState string

const (
	EpisodeWatched    EpisodeState = "watched"
	EpisodeDownloaded EpisodeState = "downloaded"
	EpisodeMissing    EpisodeState = "missing"
)

// EpisodeStatus is one entry in the episode-state timeline.
type EpisodeStatus struct {
	Episode int
	State   EpisodeState
}

// Count is an optional non-negative integer. The zero value is "unknown".
// Derived-field computations propagate unknown rather than guessing, so
// every upstream numeric field funnels through this type.
type Count struct {
	n     int
	known bool
}

// KnownCount returns a known Count, flooring negative inputs at zero.
func KnownCount(n int) Count {
	if n < 0 {
		n = 0
	}
	return Count{n: n, known: true}
}

// Known reports whether the value is present.
func (c Count) Known() bool { return c.known }

// Value returns the count, or zero when unknown.
func (c Count) Value() int { return c.n }

// OrElse returns the count when known, else fallback.
func (c Count) OrElse(fallback int) int {
	if c.known {
		return c.n
	}
	return fallback
}

// ParseCount classifies an externally supplied numeric value. Values that
// are missing, non-numeric, or negative yield an unknown Count. JSON
// decoding hands us float64 for numbers, but strings and json.Number show
// up in practice too.
func ParseCount(v any) Count {
	switch n := v.(type) {
	case nil:
		return Count{}
	case int:
		if n < 0 {
			return Count{}
		}
		return KnownCount(n)
	case int64:
		if n < 0 {
			return Count{}
		}
		return KnownCount(int(n))
	case float64:
		if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
			return Count{}
		}
		return KnownCount(int(n))
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return Count{}
		}
		return ParseCount(f)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return Count{}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Count{}
		}
		return ParseCount(f)
	default:
		return Count{}
	}
}

// ParseScore normalizes an externally supplied score to the 0–10 scale with
// one decimal of precision. The service sometimes reports on a 0–100 scale;
// values above 10 are divided by 10. Zero, absent, and malformed values all
// mean "unscored" and yield 0.
func ParseScore(v any) float64 {
	var raw float64
	switch n := v.(type) {
	case float64:
		raw = n
	case int:
		raw = float64(n)
	case int64:
		raw = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		raw = f
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		raw = f
	default:
		return 0
	}

	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	if raw > 10 {
		raw = raw / 10
	}
	if raw > 10 {
		raw = 10
	}
	return math.Round(raw*10) / 10
}

// Row is the per-title canonical record served to the table view. One row
// exists per remote library entry; a title appearing in multiple categories
// produces multiple rows.
type Row struct {
	EntryID int
	MediaID int

	Title      string
	CoverImage string

	Progress          int
	TotalEpisodes     Count
	LatestEpisode     Count
	ReleasedUnwatched Count

	// Filled by enrichment only.
	DownloadedUnwatched      Count
	NeededToDownload         Count
	EpisodeStatuses          []EpisodeStatus
	HiddenEpisodeStatusCount int

	// Score is on the 0–10 scale, 0 meaning unscored.
	Score float64

	Status  Category
	Format  string
	SiteURL string
}

// Enriched reports whether the row has been through episode-state
// enrichment.
func (r Row) Enriched() bool {
	return r.DownloadedUnwatched.Known()
}
