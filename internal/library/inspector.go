// Package library exposes per-title local episode file data.
package library

import "context"

// EpisodeFile is one locally observed episode file.
type EpisodeFile struct {
	Episode    int
	Downloaded bool
	Watched    bool
	Path       string
}

// Inspector looks up the local file collection for a title. Lookups may fail
// independently per title; callers must treat a failure as affecting only
// that title.
type Inspector interface {
	EpisodeFiles(ctx context.Context, mediaID int) ([]EpisodeFile, error)
}
