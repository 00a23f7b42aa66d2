package core

import (
	"fmt"
	"strings"

	"github.com/Digital-Shane/track-tidy/internal/tracker"
)

// ProjectRow converts one raw remote entry into a canonical Row, computing
// the derived episode-count fields. fallback is the containing list's
// category, applied when the entry carries no classifiable status of its
// own. Returns ok=false when the entry has no title record or no status can
// be determined; such entries are skipped by the loader.
func ProjectRow(e *tracker.Entry, fallback Category) (Row, bool) {
	if e == nil || e.Media == nil {
		return Row{}, false
	}

	status, ok := NormalizeStatus(stringToken(e.Status))
	if !ok {
		if fallback == "" {
			return Row{}, false
		}
		status = fallback
	}

	entryID := ParseCount(e.ID).Value()
	mediaID := ParseCount(e.Media.ID).Value()
	progress := ParseCount(e.Progress).Value()

	row := Row{
		EntryID:    entryID,
		MediaID:    mediaID,
		Title:      pickTitle(e.Media.Title, entryID),
		CoverImage: pickCover(e.Media.CoverImage),
		Progress:   progress,
		Score:      ParseScore(e.Score),
		Status:     status,
		Format:     e.Media.Format,
		SiteURL:    e.Media.SiteURL,
	}

	// Total episode count must be positive to be meaningful.
	total := ParseCount(e.Media.Episodes)
	if total.Known() && total.Value() <= 0 {
		total = Count{}
	}
	row.TotalEpisodes = total

	row.LatestEpisode = deriveLatestEpisode(e.Media, total)
	if row.LatestEpisode.Known() {
		row.ReleasedUnwatched = KnownCount(row.LatestEpisode.Value() - progress)
	}

	return row, true
}

// deriveLatestEpisode computes the highest episode number known to have been
// released: one before the next airing episode when that is known, else the
// total count, capped so it never exceeds a known total.
func deriveLatestEpisode(m *tracker.Media, total Count) Count {
	var latest Count
	if m.NextAiringEpisode != nil {
		if next := ParseCount(m.NextAiringEpisode.Episode); next.Known() {
			latest = KnownCount(next.Value() - 1)
		}
	}
	if !latest.Known() {
		latest = total
	}
	if latest.Known() && total.Known() && latest.Value() > total.Value() {
		latest = total
	}
	return latest
}

func pickTitle(t *tracker.Title, entryID int) string {
	if t != nil {
		for _, candidate := range []string{t.UserPreferred, t.English, t.Romaji, t.Native} {
			if s := strings.TrimSpace(candidate); s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("Untitled entry %d", entryID)
}

func pickCover(c *tracker.CoverImage) string {
	if c == nil {
		return ""
	}
	for _, candidate := range []string{c.ExtraLarge, c.Large, c.Medium} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return ""
}

// stringToken extracts a status token from an untrusted field that should be
// a string but may be anything.
func stringToken(v any) string {
	s, _ := v.(string)
	return s
}
