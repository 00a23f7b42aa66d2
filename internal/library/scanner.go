package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	ffprobe "gopkg.in/vansante/go-ffprobe.v2"
)

// Filename parsing is kept deliberately tolerant: episode numbers show up in
// several community naming conventions and we only need the number, not the
// rest of the name.
var (
	// seasonEpisodeRe matches combined season/episode forms: S01E02, 1x02, s1e2.
	seasonEpisodeRe = regexp.MustCompile(`(?i)[sx]?(\d+)[ex](\d+)`)

	// episodeTokenRe matches a dash- or space-delimited episode number:
	// "Title - 07", "Title EP07", "Title #07".
	episodeTokenRe = regexp.MustCompile(`(?i)(?:\bep?\.?\s*|#|-\s*)(\d{1,4})\b`)

	// looseNumberRe captures a standalone number when nothing better matched.
	looseNumberRe = regexp.MustCompile(`(?:^|[\s\._\-])(\d{1,4})(?:[\s\._\-]|$)`)

	// videoRe matches video file extensions used to include media files.
	videoRe = regexp.MustCompile(`(?i)\.(mp4|mkv|avi|mov|wmv|flv|webm|mpeg|mpg|m4v|ts|m2ts)$`)
)

// Scanner implements Inspector over a local media directory. Title ids are
// resolved to directories through a mapping file maintained by the user (or
// another tool); results are cached briefly because enrichment re-reads the
// same titles on every cycle.
type Scanner struct {
	root    string
	mapping map[int]string
	cache   *cache.Cache

	// verify gates the ffprobe integrity check: when set, a video file only
	// counts as downloaded if it is actually probeable, which filters out
	// files still being written by a downloader.
	verify       bool
	probeTimeout time.Duration
}

// ScannerConfig configures a Scanner.
type ScannerConfig struct {
	// Root is the media library root directory.
	Root string
	// MappingPath points at a JSON object of media id -> directory name
	// relative to Root. Missing file means an empty mapping.
	MappingPath string
	// VerifyDownloads enables the ffprobe integrity check.
	VerifyDownloads bool
}

// NewScanner builds a Scanner, loading the id-to-directory mapping eagerly
// so a broken mapping file surfaces at startup rather than per lookup.
func NewScanner(cfg ScannerConfig) (*Scanner, error) {
	mapping, err := loadMapping(cfg.MappingPath)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		root:         cfg.Root,
		mapping:      mapping,
		cache:        cache.New(2*time.Minute, 5*time.Minute),
		verify:       cfg.VerifyDownloads,
		probeTimeout: 5 * time.Second,
	}, nil
}

func loadMapping(path string) (map[int]string, error) {
	if path == "" {
		return map[int]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[int]string{}, nil
		}
		return nil, fmt.Errorf("failed to read library mapping: %w", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse library mapping: %w", err)
	}
	mapping := make(map[int]string, len(raw))
	for k, v := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		mapping[id] = v
	}
	return mapping, nil
}

// EpisodeFiles implements Inspector.
func (s *Scanner) EpisodeFiles(ctx context.Context, mediaID int) ([]EpisodeFile, error) {
	key := strconv.Itoa(mediaID)
	if cached, found := s.cache.Get(key); found {
		return cached.([]EpisodeFile), nil
	}

	dir, ok := s.mapping[mediaID]
	if !ok {
		return nil, fmt.Errorf("no local directory mapped for title %d", mediaID)
	}

	files, err := s.scanDir(ctx, filepath.Join(s.root, dir))
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, files, cache.DefaultExpiration)
	return files, nil
}

func (s *Scanner) scanDir(ctx context.Context, dir string) ([]EpisodeFile, error) {
	var files []EpisodeFile
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !videoRe.MatchString(d.Name()) {
			return nil
		}
		episode, ok := ParseEpisodeNumber(d.Name())
		if !ok {
			return nil
		}
		files = append(files, EpisodeFile{
			Episode:    episode,
			Downloaded: s.downloaded(ctx, path),
			Watched:    hasWatchedMarker(path),
			Path:       path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Episode < files[j].Episode })
	return files, nil
}

func (s *Scanner) downloaded(ctx context.Context, path string) bool {
	if !s.verify {
		return true
	}
	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()
	_, err := ffprobe.ProbeURL(probeCtx, path)
	return err == nil
}

// hasWatchedMarker reports whether a sidecar ".watched" marker exists for
// the file, the convention used by the sibling playback tooling.
func hasWatchedMarker(path string) bool {
	_, err := os.Stat(path + ".watched")
	return err == nil
}

// ParseEpisodeNumber extracts an episode number from a filename. SxxEyy
// style wins over loose numbers so "S02E05" is episode 5, not 2.
func ParseEpisodeNumber(name string) (int, bool) {
	if m := seasonEpisodeRe.FindStringSubmatch(name); m != nil {
		if n, err := strconv.Atoi(m[2]); err == nil && n > 0 {
			return n, true
		}
	}
	if m := episodeTokenRe.FindStringSubmatch(name); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n, true
		}
	}
	if m := looseNumberRe.FindStringSubmatch(name); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && n < 1900 {
			return n, true
		}
	}
	return 0, false
}
