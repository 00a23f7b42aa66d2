package enrich

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Digital-Shane/track-tidy/internal/core"
	"github.com/Digital-Shane/track-tidy/internal/library"
)

// fakeInspector serves canned episode files per media id.
type fakeInspector struct {
	files map[int][]library.EpisodeFile
	errs  map[int]error
}

func (f *fakeInspector) EpisodeFiles(ctx context.Context, mediaID int) ([]library.EpisodeFile, error) {
	if err, ok := f.errs[mediaID]; ok {
		return nil, err
	}
	return f.files[mediaID], nil
}

func downloaded(episodes ...int) []library.EpisodeFile {
	files := make([]library.EpisodeFile, 0, len(episodes))
	for _, ep := range episodes {
		files = append(files, library.EpisodeFile{Episode: ep, Downloaded: true})
	}
	return files
}

func currentRow(entryID, mediaID, progress, latest int) core.Row {
	return core.Row{
		EntryID:           entryID,
		MediaID:           mediaID,
		Title:             fmt.Sprintf("title %d", mediaID),
		Status:            core.CategoryCurrent,
		Progress:          progress,
		TotalEpisodes:     core.KnownCount(24),
		LatestEpisode:     core.KnownCount(latest),
		ReleasedUnwatched: core.KnownCount(latest - progress),
	}
}

func TestEnrichTimeline(t *testing.T) {
	inspector := &fakeInspector{files: map[int][]library.EpisodeFile{
		42: downloaded(6, 7, 9),
	}}

	rows := []core.Row{currentRow(1, 42, 5, 9)}
	out, failures := NewEnricher(inspector, 2).Enrich(context.Background(), rows)
	if len(failures) != 0 {
		t.Fatalf("Enrich() failures = %v, want none", failures)
	}

	row := out[0]
	if got := row.DownloadedUnwatched.Value(); got != 3 {
		t.Errorf("downloadedUnwatched = %d, want 3", got)
	}
	if got := row.NeededToDownload.Value(); got != 1 {
		t.Errorf("neededToDownload = %d, want 1", got)
	}
	if row.HiddenEpisodeStatusCount != 0 {
		t.Errorf("hiddenEpisodeStatusCount = %d, want 0", row.HiddenEpisodeStatusCount)
	}

	want := []core.EpisodeStatus{
		{Episode: 1, State: core.EpisodeWatched},
		{Episode: 2, State: core.EpisodeWatched},
		{Episode: 3, State: core.EpisodeWatched},
		{Episode: 4, State: core.EpisodeWatched},
		{Episode: 5, State: core.EpisodeWatched},
		{Episode: 6, State: core.EpisodeDownloaded},
		{Episode: 7, State: core.EpisodeDownloaded},
		{Episode: 8, State: core.EpisodeMissing},
		{Episode: 9, State: core.EpisodeDownloaded},
	}
	if diff := cmp.Diff(want, row.EpisodeStatuses); diff != "" {
		t.Errorf("episode timeline mismatch (-want +got):\n%s", diff)
	}
}

func TestEnrichSkipsIneligibleRows(t *testing.T) {
	inspector := &fakeInspector{files: map[int][]library.EpisodeFile{}}

	completed := currentRow(1, 10, 24, 24)
	completed.Status = core.CategoryCompleted
	unknownRelease := currentRow(2, 11, 3, 0)
	unknownRelease.LatestEpisode = core.Count{}
	unknownRelease.ReleasedUnwatched = core.Count{}

	out, failures := NewEnricher(inspector, 1).Enrich(context.Background(), []core.Row{completed, unknownRelease})
	if len(failures) != 0 {
		t.Fatalf("Enrich() failures = %v, want none", failures)
	}
	for i, row := range out {
		if row.Enriched() {
			t.Errorf("row %d enriched = true, want false", i)
		}
	}
}

func TestEnrichIsolatesPerRowFailures(t *testing.T) {
	inspector := &fakeInspector{
		files: map[int][]library.EpisodeFile{
			20: downloaded(4),
		},
		errs: map[int]error{21: errors.New("directory unreadable")},
	}

	rows := []core.Row{
		currentRow(1, 20, 3, 4),
		currentRow(2, 21, 1, 6),
	}
	out, failures := NewEnricher(inspector, 4).Enrich(context.Background(), rows)

	if len(failures) != 1 || failures[0].EntryID != 2 {
		t.Fatalf("Enrich() failures = %v, want one failure for entry 2", failures)
	}
	if !out[0].Enriched() {
		t.Error("healthy row not enriched despite sibling failure")
	}
	if out[1].Enriched() {
		t.Error("failed row enriched = true, want prior values kept")
	}
}

func TestEnrichBoundsTimelineWindow(t *testing.T) {
	inspector := &fakeInspector{files: map[int][]library.EpisodeFile{
		30: downloaded(1090),
	}}

	row := currentRow(1, 30, 1080, 1092)
	row.TotalEpisodes = core.KnownCount(1100)
	out, failures := NewEnricher(inspector, 1).Enrich(context.Background(), []core.Row{row})
	if len(failures) != 0 {
		t.Fatalf("Enrich() failures = %v, want none", failures)
	}

	got := out[0]
	if got.HiddenEpisodeStatusCount != 1012 {
		t.Errorf("hiddenEpisodeStatusCount = %d, want 1012", got.HiddenEpisodeStatusCount)
	}
	if len(got.EpisodeStatuses) != 80 {
		t.Fatalf("timeline length = %d, want 80", len(got.EpisodeStatuses))
	}
	if first := got.EpisodeStatuses[0].Episode; first != 1013 {
		t.Errorf("timeline first episode = %d, want 1013", first)
	}
	if last := got.EpisodeStatuses[79].Episode; last != 1092 {
		t.Errorf("timeline last episode = %d, want 1092", last)
	}
}

func TestEnrichWithoutInspector(t *testing.T) {
	rows := []core.Row{currentRow(1, 50, 2, 5)}
	out, failures := NewEnricher(nil, 1).Enrich(context.Background(), rows)
	if len(failures) != 1 {
		t.Fatalf("Enrich() failures = %d, want 1", len(failures))
	}
	if out[0].Enriched() {
		t.Error("row enriched without an inspector")
	}
}
