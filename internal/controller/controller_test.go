package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Digital-Shane/track-tidy/internal/bus"
	"github.com/Digital-Shane/track-tidy/internal/core"
	"github.com/Digital-Shane/track-tidy/internal/enrich"
	"github.com/Digital-Shane/track-tidy/internal/prefs"
)

type loadResult struct {
	rows []core.Row
	err  error
}

// scriptedLoader blocks each Load call until the test releases it, so tests
// can interleave concurrent loads deterministically.
type scriptedLoader struct {
	mu    sync.Mutex
	calls []chan loadResult
}

func (l *scriptedLoader) Load(ctx context.Context) ([]core.Row, error) {
	ch := make(chan loadResult)
	l.mu.Lock()
	l.calls = append(l.calls, ch)
	l.mu.Unlock()
	r := <-ch
	return r.rows, r.err
}

func (l *scriptedLoader) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func (l *scriptedLoader) release(i int, r loadResult) {
	l.mu.Lock()
	ch := l.calls[i]
	l.mu.Unlock()
	ch <- r
}

type fixedEnricher struct {
	rows     []core.Row
	failures []enrich.Failure
}

func (e *fixedEnricher) Enrich(ctx context.Context, rows []core.Row) ([]core.Row, []enrich.Failure) {
	if e.rows != nil {
		return e.rows, e.failures
	}
	return rows, e.failures
}

type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
}

func (n *recordingNotifier) Success(string) {}
func (n *recordingNotifier) Info(string)    {}
func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func newTestController(loader Loader, enricher Enricher) (*Controller, *bus.Bus, prefs.MemStore) {
	b := bus.New(1024)
	store := prefs.MemStore{}
	if loader == nil {
		loader = &scriptedLoader{}
	}
	if enricher == nil {
		enricher = &fixedEnricher{}
	}
	c := New(Config{
		Loader:   loader,
		Enricher: enricher,
		Bus:      b,
		Store:    store,
		Notifier: &recordingNotifier{},
	})
	return c, b, store
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestLoadCommitsRows(t *testing.T) {
	loader := &scriptedLoader{}
	c, _, _ := newTestController(loader, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Load(context.Background())
	}()

	waitFor(t, func() bool { return loader.callCount() == 1 })
	want := []core.Row{{EntryID: 1, Title: "Akira", Status: core.CategoryCurrent}}
	loader.release(0, loadResult{rows: want})
	<-done

	if diff := cmp.Diff(want, c.Rows(), cmp.AllowUnexported(core.Count{})); diff != "" {
		t.Errorf("Rows() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLastTriggeredWins(t *testing.T) {
	loader := &scriptedLoader{}
	c, _, _ := newTestController(loader, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.Load(ctx)
	}()
	waitFor(t, func() bool { return loader.callCount() == 1 })

	go func() {
		defer wg.Done()
		c.Load(ctx)
	}()
	waitFor(t, func() bool { return loader.callCount() == 2 })

	newer := []core.Row{{EntryID: 2, Title: "newer"}}
	stale := []core.Row{{EntryID: 1, Title: "stale"}}

	// The newer load finishes first; the older result must then be discarded.
	loader.release(1, loadResult{rows: newer})
	loader.release(0, loadResult{rows: stale})
	wg.Wait()

	if diff := cmp.Diff(newer, c.Rows(), cmp.AllowUnexported(core.Count{})); diff != "" {
		t.Errorf("stale load overwrote newer result (-want +got):\n%s", diff)
	}
}

func TestLoadFailureClearsRows(t *testing.T) {
	loader := &scriptedLoader{}
	c, _, _ := newTestController(loader, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Load(context.Background())
	}()
	waitFor(t, func() bool { return loader.callCount() == 1 })
	loader.release(0, loadResult{rows: []core.Row{{EntryID: 1}}})
	<-done

	done = make(chan struct{})
	go func() {
		defer close(done)
		c.Load(context.Background())
	}()
	waitFor(t, func() bool { return loader.callCount() == 2 })
	loader.release(1, loadResult{err: errors.New("service unavailable")})
	<-done

	if got := c.Rows(); len(got) != 0 {
		t.Errorf("Rows() after failed load = %v, want empty", got)
	}
}

func TestEnrichPartialFailureKeepsRows(t *testing.T) {
	rows := []core.Row{
		{EntryID: 1, Status: core.CategoryCurrent, ReleasedUnwatched: core.KnownCount(2)},
		{EntryID: 2, Status: core.CategoryCurrent, ReleasedUnwatched: core.KnownCount(1)},
	}
	enriched := make([]core.Row, len(rows))
	copy(enriched, rows)
	enriched[0].DownloadedUnwatched = core.KnownCount(1)

	loader := &scriptedLoader{}
	c, _, _ := newTestController(loader, &fixedEnricher{
		rows:     enriched,
		failures: []enrich.Failure{{EntryID: 2, Title: "b", Err: errors.New("unreadable")}},
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Load(context.Background())
	}()
	waitFor(t, func() bool { return loader.callCount() == 1 })
	loader.release(0, loadResult{rows: rows})
	<-done

	c.Enrich(context.Background())

	if diff := cmp.Diff(enriched, c.Rows(), cmp.AllowUnexported(core.Count{})); diff != "" {
		t.Errorf("partial failure dropped enrichment result (-want +got):\n%s", diff)
	}
}

func TestSetColumnVisibility(t *testing.T) {
	c, b, store := newTestController(nil, nil)

	c.setColumnVisibility(map[string]any{"column": "watch-info", "visible": false})
	if c.Preferences().ColumnVisibility[prefs.ColumnWatchInfo] {
		t.Error("watch-info still visible after hide")
	}
	if _, ok := store["table.columns"]; !ok {
		t.Error("column visibility not persisted")
	}

	// Unknown columns and malformed payloads are ignored.
	before := c.Preferences()
	c.setColumnVisibility(map[string]any{"column": "mystery", "visible": false})
	c.setColumnVisibility(map[string]any{"column": "title"})
	if diff := cmp.Diff(before, c.Preferences()); diff != "" {
		t.Errorf("invalid visibility request changed state (-want +got):\n%s", diff)
	}

	drainStates(b)
}

func TestSetCoverSizeClamps(t *testing.T) {
	c, b, _ := newTestController(nil, nil)

	tests := []struct {
		in   any
		want int
	}{
		{in: float64(200), want: prefs.CoverSizeMax},
		{in: float64(1), want: prefs.CoverSizeMin},
		{in: 60, want: 60},
		{in: "huge", want: 60}, // malformed payload: no change
	}
	for _, tt := range tests {
		c.setCoverSize(map[string]any{"size": tt.in})
		if got := c.Preferences().CoverSize; got != tt.want {
			t.Errorf("setCoverSize(%v) size = %d, want %d", tt.in, got, tt.want)
		}
	}

	drainStates(b)
}

func TestOpenTitleNavigates(t *testing.T) {
	var mu sync.Mutex
	var opened []int

	b := bus.New(64)
	c := New(Config{
		Loader:   &scriptedLoader{},
		Enricher: &fixedEnricher{},
		Bus:      b,
		Store:    prefs.MemStore{},
		Notifier: &recordingNotifier{},
		Navigate: func(mediaID int) {
			mu.Lock()
			defer mu.Unlock()
			opened = append(opened, mediaID)
		},
	})

	c.openTitle(map[string]any{"mediaId": float64(2001)})
	c.openTitle(map[string]any{"mediaId": "nonsense"})
	c.openTitle(map[string]any{})

	mu.Lock()
	defer mu.Unlock()
	if len(opened) != 1 || opened[0] != 2001 {
		t.Errorf("navigated = %v, want [2001]", opened)
	}
}

func TestDebugLogRing(t *testing.T) {
	c, b, _ := newTestController(nil, nil)

	for i := 0; i < debugLogLimit+30; i++ {
		c.appendDebug("entry")
		drainStates(b)
	}

	c.mu.Lock()
	got := len(c.debugLog)
	c.mu.Unlock()
	if got != debugLogLimit {
		t.Errorf("debug log length = %d, want %d", got, debugLogLimit)
	}
}

// drainStates empties the state channel so buffered publishes never block a
// test that publishes more than the buffer size.
func drainStates(b *bus.Bus) {
	for {
		select {
		case <-b.States():
		default:
			return
		}
	}
}
