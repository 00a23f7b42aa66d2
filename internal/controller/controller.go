// Package controller owns the authoritative table-view state and reconciles
// the remote library with local episode data.
package controller

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Digital-Shane/track-tidy/internal/bus"
	"github.com/Digital-Shane/track-tidy/internal/core"
	"github.com/Digital-Shane/track-tidy/internal/enrich"
	"github.com/Digital-Shane/track-tidy/internal/log"
	"github.com/Digital-Shane/track-tidy/internal/prefs"
)

// debugLogLimit bounds the in-memory diagnostic ring; oldest entries drop
// first.
const debugLogLimit = 120

// DebugEntry is one timestamped diagnostic line pushed to the presentation
// surface.
type DebugEntry struct {
	Time    time.Time
	Message string
}

// Loader produces the full row set from the remote library.
type Loader interface {
	Load(ctx context.Context) ([]core.Row, error)
}

// Enricher merges local episode data into eligible rows.
type Enricher interface {
	Enrich(ctx context.Context, rows []core.Row) ([]core.Row, []enrich.Failure)
}

// Notifier is the host's fire-and-forget notification sink.
type Notifier interface {
	Success(message string)
	Error(message string)
	Info(message string)
}

// Navigator is the host's "open related screen" action; it receives the
// title identifier and nothing else.
type Navigator func(mediaID int)

// Config wires a Controller's collaborators.
type Config struct {
	Loader   Loader
	Enricher Enricher
	Bus      *bus.Bus
	Store    prefs.Store
	Notifier Notifier
	Navigate Navigator
}

// Controller is the reconciliation state machine. Load and enrich are
// independently re-triggerable; both share one run-sequence counter so a
// newer invocation silently supersedes an older one (last-triggered-wins).
// No I/O is aborted on supersession; stale results simply never commit.
type Controller struct {
	loader   Loader
	enricher Enricher
	bus      *bus.Bus
	store    prefs.Store
	notifier Notifier
	navigate Navigator

	mu        sync.Mutex
	seq       uint64
	rows      []core.Row
	loading   bool
	enriching bool
	lastError string
	debugLog  []DebugEntry
	prefs     prefs.Preferences
}

// New constructs a Controller, seeding preferences from the store.
func New(cfg Config) *Controller {
	return &Controller{
		loader:   cfg.Loader,
		enricher: cfg.Enricher,
		bus:      cfg.Bus,
		store:    cfg.Store,
		notifier: cfg.Notifier,
		navigate: cfg.Navigate,
		prefs:    prefs.Load(cfg.Store),
	}
}

// Run publishes the initial state snapshot, then consumes presentation
// events until ctx is canceled or the event channel closes. Long-running
// operations are spawned per event; supersession is handled by the run
// tokens, not by cancellation.
func (c *Controller) Run(ctx context.Context) {
	c.publishSnapshot()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.bus.Events():
			if !ok {
				return
			}
			c.handleEvent(ctx, ev)
		}
	}
}

func (c *Controller) handleEvent(ctx context.Context, ev bus.Event) {
	switch ev.Name {
	case bus.EventRefresh:
		go c.Load(ctx)
	case bus.EventLoadEnrichedEpisodes:
		go c.Enrich(ctx)
	case bus.EventOpenTitle:
		c.openTitle(ev.Payload)
	case bus.EventSetColumnVisibility:
		c.setColumnVisibility(ev.Payload)
	case bus.EventSetCoverSize:
		c.setCoverSize(ev.Payload)
	default:
		// Unknown events are no-ops.
	}
}

// Load replaces the row set from the remote library. On failure the rows
// are cleared and the error becomes the visible error state; either way the
// loading flag is cleared in a final step unless a newer operation has
// taken over.
func (c *Controller) Load(ctx context.Context) {
	c.mu.Lock()
	c.seq++
	token := c.seq
	c.loading = true
	c.lastError = ""
	c.mu.Unlock()

	c.bus.PublishState(bus.TopicLoading, true)
	c.bus.PublishState(bus.TopicError, "")

	rows, err := c.loader.Load(ctx)

	c.mu.Lock()
	if token != c.seq {
		c.mu.Unlock()
		return
	}

	if err != nil {
		c.rows = nil
		c.lastError = err.Error()
		c.loading = false
		c.mu.Unlock()

		c.bus.PublishState(bus.TopicRows, []core.Row{})
		c.bus.PublishState(bus.TopicError, err.Error())
		c.appendDebug(fmt.Sprintf("library load failed: %v", err))
		c.bus.PublishState(bus.TopicLoading, false)
		c.notifier.Error("Failed to load library: " + err.Error())
		return
	}

	c.rows = rows
	c.enriching = false
	c.loading = false
	c.mu.Unlock()

	c.bus.PublishState(bus.TopicRows, rows)
	c.bus.PublishState(bus.TopicEnrichmentLoading, false)
	c.appendDebug(loadSummary(rows))
	c.bus.PublishState(bus.TopicLoading, false)
}

// Enrich runs the episode-state enricher over the current row set. Per-row
// failures are diagnostic-only; the global error state is touched only when
// enrichment produced no output at all.
func (c *Controller) Enrich(ctx context.Context) {
	c.mu.Lock()
	c.seq++
	token := c.seq
	c.enriching = true
	c.lastError = ""
	rows := c.rows
	c.mu.Unlock()

	c.bus.PublishState(bus.TopicEnrichmentLoading, true)
	c.bus.PublishState(bus.TopicError, "")

	enriched, failures := c.enricher.Enrich(ctx, rows)

	c.mu.Lock()
	if token != c.seq {
		c.mu.Unlock()
		return
	}

	eligible := 0
	for _, row := range rows {
		if row.Status == core.CategoryCurrent && row.ReleasedUnwatched.Known() {
			eligible++
		}
	}

	if eligible > 0 && len(failures) == eligible {
		msg := fmt.Sprintf("enrichment failed for all %d titles", eligible)
		c.lastError = msg
		c.enriching = false
		c.mu.Unlock()

		for _, f := range failures {
			c.appendDebug(fmt.Sprintf("enrichment failed for %q: %v", f.Title, f.Err))
		}
		c.bus.PublishState(bus.TopicError, msg)
		c.bus.PublishState(bus.TopicEnrichmentLoading, false)
		c.notifier.Error("Failed to load episode data")
		return
	}

	c.rows = enriched
	c.enriching = false
	c.mu.Unlock()

	for _, f := range failures {
		c.appendDebug(fmt.Sprintf("enrichment failed for %q: %v", f.Title, f.Err))
	}
	c.bus.PublishState(bus.TopicRows, enriched)
	c.appendDebug(fmt.Sprintf("enriched %d of %d eligible titles", eligible-len(failures), eligible))
	c.bus.PublishState(bus.TopicEnrichmentLoading, false)
}

// Rows returns a snapshot of the current row set.
func (c *Controller) Rows() []core.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Row, len(c.rows))
	copy(out, c.rows)
	return out
}

// Preferences returns a snapshot of the current preferences.
func (c *Controller) Preferences() prefs.Preferences {
	c.mu.Lock()
	defer c.mu.Unlock()
	vis := make(map[prefs.Column]bool, len(c.prefs.ColumnVisibility))
	for k, v := range c.prefs.ColumnVisibility {
		vis[k] = v
	}
	return prefs.Preferences{ColumnVisibility: vis, CoverSize: c.prefs.CoverSize}
}

func (c *Controller) openTitle(payload map[string]any) {
	if c.navigate == nil {
		return
	}
	mediaID := core.ParseCount(payload["mediaId"])
	if !mediaID.Known() || mediaID.Value() == 0 {
		return
	}
	c.navigate(mediaID.Value())
}

func (c *Controller) setColumnVisibility(payload map[string]any) {
	col, ok := payload["column"].(string)
	if !ok {
		return
	}
	visible, ok := payload["visible"].(bool)
	if !ok {
		return
	}

	c.mu.Lock()
	applied := c.prefs.SetColumnVisibility(c.store, prefs.Column(col), visible)
	vis := make(map[prefs.Column]bool, len(c.prefs.ColumnVisibility))
	for k, v := range c.prefs.ColumnVisibility {
		vis[k] = v
	}
	c.mu.Unlock()

	if applied {
		c.bus.PublishState(bus.TopicColumnVisibility, vis)
	}
}

func (c *Controller) setCoverSize(payload map[string]any) {
	raw, ok := payload["size"]
	if !ok {
		return
	}
	size, ok := toFiniteFloat(raw)
	if !ok {
		return
	}

	c.mu.Lock()
	applied := c.prefs.SetCoverSize(c.store, int(size))
	c.mu.Unlock()

	c.bus.PublishState(bus.TopicCoverSize, applied)
}

func toFiniteFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// appendDebug records one diagnostic entry, trims the ring, and pushes the
// updated log to the presentation surface. Entries are mirrored into the
// persistent session log.
func (c *Controller) appendDebug(message string) {
	c.mu.Lock()
	c.debugLog = append(c.debugLog, DebugEntry{Time: time.Now(), Message: message})
	if len(c.debugLog) > debugLogLimit {
		c.debugLog = c.debugLog[len(c.debugLog)-debugLogLimit:]
	}
	snapshot := make([]DebugEntry, len(c.debugLog))
	copy(snapshot, c.debugLog)
	c.mu.Unlock()

	log.Append(message)
	c.bus.PublishState(bus.TopicDebugLogs, snapshot)
}

// publishSnapshot pushes the full current state, used once at startup so
// the presentation surface starts from a consistent picture.
func (c *Controller) publishSnapshot() {
	c.mu.Lock()
	rows := make([]core.Row, len(c.rows))
	copy(rows, c.rows)
	loading := c.loading
	enriching := c.enriching
	lastError := c.lastError
	debug := make([]DebugEntry, len(c.debugLog))
	copy(debug, c.debugLog)
	vis := make(map[prefs.Column]bool, len(c.prefs.ColumnVisibility))
	for k, v := range c.prefs.ColumnVisibility {
		vis[k] = v
	}
	coverSize := c.prefs.CoverSize
	c.mu.Unlock()

	c.bus.PublishState(bus.TopicRows, rows)
	c.bus.PublishState(bus.TopicLoading, loading)
	c.bus.PublishState(bus.TopicEnrichmentLoading, enriching)
	c.bus.PublishState(bus.TopicError, lastError)
	c.bus.PublishState(bus.TopicDebugLogs, debug)
	c.bus.PublishState(bus.TopicColumnVisibility, vis)
	c.bus.PublishState(bus.TopicCoverSize, coverSize)
}

func loadSummary(rows []core.Row) string {
	counts := make(map[core.Category]int)
	for _, row := range rows {
		counts[row.Status]++
	}
	return fmt.Sprintf(
		"loaded %d entries (current %d, completed %d, paused %d, dropped %d, planning %d)",
		len(rows),
		counts[core.CategoryCurrent],
		counts[core.CategoryCompleted],
		counts[core.CategoryPaused],
		counts[core.CategoryDropped],
		counts[core.CategoryPlanning],
	)
}
