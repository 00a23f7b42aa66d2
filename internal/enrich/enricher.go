// Package enrich merges local download/watch data into row episode-state
// timelines.
package enrich

import (
	"context"
	"errors"
	"sync"

	"github.com/Digital-Shane/track-tidy/internal/core"
	"github.com/Digital-Shane/track-tidy/internal/library"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
)

const (
	// timelineWindow bounds the trailing episode-state timeline per row.
	timelineWindow = 80

	defaultWorkerCount = 10
)

// errNoInspector reports enrichment attempted without a configured library.
var errNoInspector = errors.New("no library root configured")

// Failure records a per-row enrichment failure. Failures never abort the
// rest of the enrichment pass; the affected row keeps its prior values.
type Failure struct {
	EntryID int
	Title   string
	Err     error
}

// Enricher computes episode-state timelines for rows in the CURRENT
// category by consulting the local library inspector.
type Enricher struct {
	inspector   library.Inspector
	workerCount int
}

// NewEnricher constructs an Enricher. workerCount <= 0 selects the default.
func NewEnricher(inspector library.Inspector, workerCount int) *Enricher {
	if workerCount <= 0 {
		workerCount = defaultWorkerCount
	}
	return &Enricher{inspector: inspector, workerCount: workerCount}
}

// Enrich returns a new row slice where every eligible row has its
// enrichment fields populated. Eligible means classified CURRENT with a
// known releasedUnwatched. Per-row lookups run concurrently; one row's
// failure does not cancel the others.
func (e *Enricher) Enrich(ctx context.Context, rows []core.Row) ([]core.Row, []Failure) {
	eligible := make([]int, 0, len(rows))
	for i, row := range rows {
		if row.Status == core.CategoryCurrent && row.ReleasedUnwatched.Known() {
			eligible = append(eligible, i)
		}
	}

	out := make([]core.Row, len(rows))
	copy(out, rows)
	if len(eligible) == 0 {
		return out, nil
	}

	// No local library configured: every eligible row fails the same way.
	if e.inspector == nil {
		failures := make([]Failure, 0, len(eligible))
		for _, idx := range eligible {
			failures = append(failures, Failure{
				EntryID: rows[idx].EntryID,
				Title:   rows[idx].Title,
				Err:     errNoInspector,
			})
		}
		return out, failures
	}

	results := csmap.Create[int, core.Row]()

	var failuresMu sync.Mutex
	var failures []Failure

	workerCount := min(e.workerCount, len(eligible))
	workCh := make(chan int)
	var wg sync.WaitGroup

	for range workerCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				row := rows[idx]
				files, err := e.inspector.EpisodeFiles(ctx, row.MediaID)
				if err != nil {
					failuresMu.Lock()
					failures = append(failures, Failure{EntryID: row.EntryID, Title: row.Title, Err: err})
					failuresMu.Unlock()
					continue
				}
				results.Store(idx, enrichRow(row, files))
			}
		}()
	}

	for _, idx := range eligible {
		select {
		case workCh <- idx:
		case <-ctx.Done():
			// Stop handing out work; in-flight lookups still finish.
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(workCh)
	wg.Wait()

	results.Range(func(idx int, row core.Row) bool {
		out[idx] = row
		return false
	})

	return out, failures
}

// enrichRow computes the four enrichment fields plus the bounded timeline
// for a single row from its local file collection.
func enrichRow(row core.Row, files []library.EpisodeFile) core.Row {
	downloaded := make(map[int]bool)
	highestDownloaded := 0
	for _, f := range files {
		if !f.Downloaded || f.Episode <= 0 {
			continue
		}
		downloaded[f.Episode] = true
		if f.Episode > highestDownloaded {
			highestDownloaded = f.Episode
		}
	}

	watchedUntil := max(0, row.Progress)
	latest := row.LatestEpisode
	maxEpisode := max(watchedUntil, latest.OrElse(0), highestDownloaded)

	// Downloaded episodes only count as unwatched backlog when they fall
	// inside the released range; with an unknown latest episode "released"
	// is undefined, so the count stays at zero.
	downloadedUnwatched := 0
	if latest.Known() {
		for ep := range downloaded {
			if ep > watchedUntil && ep <= latest.Value() {
				downloadedUnwatched++
			}
		}
	}

	row.DownloadedUnwatched = core.KnownCount(downloadedUnwatched)
	row.NeededToDownload = core.KnownCount(row.ReleasedUnwatched.Value() - downloadedUnwatched)

	// Only the trailing window is enumerated; older episodes are summarized
	// by the hidden count so a 900-episode backlog does not balloon the row.
	windowStart := max(0, maxEpisode-timelineWindow)
	row.HiddenEpisodeStatusCount = windowStart

	timeline := make([]core.EpisodeStatus, 0, maxEpisode-windowStart)
	for ep := windowStart + 1; ep <= maxEpisode; ep++ {
		switch {
		case ep <= watchedUntil:
			timeline = append(timeline, core.EpisodeStatus{Episode: ep, State: core.EpisodeWatched})
		case downloaded[ep]:
			timeline = append(timeline, core.EpisodeStatus{Episode: ep, State: core.EpisodeDownloaded})
		case latest.Known() && ep <= latest.Value():
			timeline = append(timeline, core.EpisodeStatus{Episode: ep, State: core.EpisodeMissing})
		default:
			// Future, unreleased episode: never shown.
		}
	}
	row.EpisodeStatuses = timeline

	return row
}
