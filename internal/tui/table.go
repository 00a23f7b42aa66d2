// Package tui renders the library table view and translates key presses
// into controller events. It is a pure presentation surface: all state
// arrives over the bus, every mutation leaves as an event.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Digital-Shane/track-tidy/internal/bus"
	"github.com/Digital-Shane/track-tidy/internal/controller"
	"github.com/Digital-Shane/track-tidy/internal/core"
	"github.com/Digital-Shane/track-tidy/internal/prefs"
	"github.com/Digital-Shane/track-tidy/internal/tui/theme"
	"github.com/Digital-Shane/track-tidy/internal/view"
)

// stateMsg wraps one bus state update for the Bubble Tea loop.
type stateMsg bus.State

// stateClosedMsg signals the controller closed the state channel.
type stateClosedMsg struct{}

// NotifyLevel classifies a notification toast.
type NotifyLevel int

const (
	NotifyInfo NotifyLevel = iota
	NotifySuccess
	NotifyError
)

// NotifyMsg is an externally injected toast; the host's Notifier sends these
// with Program.Send.
type NotifyMsg struct {
	Level   NotifyLevel
	Message string
}

// toastExpiredMsg clears a toast once its display time elapses.
type toastExpiredMsg struct{ id int }

const toastDuration = 4 * time.Second

// Model is the table view.
type Model struct {
	bus    *bus.Bus
	engine *view.Engine
	theme  theme.Theme

	rows      []core.Row
	loading   bool
	enriching bool
	errMsg    string
	debugLog  []controller.DebugEntry
	columns   map[prefs.Column]bool
	coverSize int

	query  view.Query
	cursor int

	spinner   spinner.Model
	search    textinput.Model
	searching bool
	showDebug bool

	toast     string
	toastKind theme.BadgeKind
	toastID   int

	width  int
	height int
}

// NewModel returns an initialized table model wired to b.
func NewModel(b *bus.Bus) *Model {
	t := theme.Default()

	runewidth.DefaultCondition.EastAsianWidth = false
	runewidth.DefaultCondition.StrictEmojiNeutral = true

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(t.Colors().Accent)

	search := textinput.New()
	search.Placeholder = "filter titles"
	search.CharLimit = 120
	search.Width = 30

	return &Model{
		bus:       b,
		engine:    view.NewEngine(),
		theme:     t,
		columns:   defaultColumns(),
		coverSize: prefs.CoverSizeDefault,
		query: view.Query{
			Category: core.CategoryCurrent,
			SortKey:  view.SortTitle,
		},
		spinner: sp,
		search:  search,
		width:   80,
		height:  24,
	}
}

func defaultColumns() map[prefs.Column]bool {
	cols := make(map[prefs.Column]bool, len(prefs.Columns()))
	for _, c := range prefs.Columns() {
		cols[c] = true
	}
	return cols
}

// Init starts the spinner and the state pump.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitForState(),
		tea.WindowSize(),
	)
}

// waitForState blocks on the next controller state broadcast.
func (m *Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.bus.States()
		if !ok {
			return stateClosedMsg{}
		}
		return stateMsg(s)
	}
}

// Update handles Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampScroll()
		return m, nil

	case stateMsg:
		m.applyState(bus.State(msg))
		return m, m.waitForState()

	case stateClosedMsg:
		return m, tea.Quit

	case NotifyMsg:
		m.toast = msg.Message
		switch msg.Level {
		case NotifySuccess:
			m.toastKind = theme.BadgeSuccess
		case NotifyError:
			m.toastKind = theme.BadgeError
		default:
			m.toastKind = theme.BadgeInfo
		}
		m.toastID++
		id := m.toastID
		return m, tea.Tick(toastDuration, func(time.Time) tea.Msg {
			return toastExpiredMsg{id: id}
		})

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// applyState folds one controller broadcast into the model.
func (m *Model) applyState(s bus.State) {
	switch s.Topic {
	case bus.TopicRows:
		if rows, ok := s.Payload.([]core.Row); ok {
			m.rows = rows
			m.clampScroll()
		}
	case bus.TopicLoading:
		if v, ok := s.Payload.(bool); ok {
			m.loading = v
		}
	case bus.TopicEnrichmentLoading:
		if v, ok := s.Payload.(bool); ok {
			m.enriching = v
		}
	case bus.TopicError:
		if v, ok := s.Payload.(string); ok {
			m.errMsg = v
		}
	case bus.TopicDebugLogs:
		if v, ok := s.Payload.([]controller.DebugEntry); ok {
			m.debugLog = v
		}
	case bus.TopicColumnVisibility:
		if v, ok := s.Payload.(map[prefs.Column]bool); ok {
			m.columns = v
		}
	case bus.TopicCoverSize:
		if v, ok := s.Payload.(int); ok {
			m.coverSize = v
		}
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "enter", "esc":
			m.searching = false
			m.search.Blur()
			if msg.String() == "esc" {
				m.search.SetValue("")
			}
			m.query.Search = m.search.Value()
			m.resetCursor()
			return m, nil
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			m.query.Search = m.search.Value()
			m.resetCursor()
			return m, cmd
		}
	}

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "r":
		m.bus.SendEvent(bus.Event{Name: bus.EventRefresh})
		return m, nil

	case "e":
		m.bus.SendEvent(bus.Event{Name: bus.EventLoadEnrichedEpisodes})
		return m, nil

	case "enter", "o":
		if row, ok := m.selectedRow(); ok {
			m.bus.SendEvent(bus.Event{
				Name:    bus.EventOpenTitle,
				Payload: map[string]any{"mediaId": row.MediaID},
			})
		}
		return m, nil

	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink

	case "tab":
		m.cycleCategory(1)
		return m, nil
	case "shift+tab":
		m.cycleCategory(-1)
		return m, nil
	case "1", "2", "3", "4", "5":
		idx := int(msg.String()[0] - '1')
		m.query.Category = core.Categories()[idx]
		m.resetCursor()
		return m, nil

	case "t":
		m.applySort(view.SortTitle)
		return m, nil
	case "p":
		m.applySort(view.SortProgress)
		return m, nil
	case "s":
		m.applySort(view.SortScore)
		return m, nil
	case "f":
		m.applySort(view.SortFormat)
		return m, nil
	case "n":
		m.applySort(view.SortEpisodes)
		return m, nil

	case "w":
		visible := !m.columns[prefs.ColumnWatchInfo]
		m.bus.SendEvent(bus.Event{
			Name: bus.EventSetColumnVisibility,
			Payload: map[string]any{
				"column":  string(prefs.ColumnWatchInfo),
				"visible": visible,
			},
		})
		return m, nil

	case "+", "=":
		m.bus.SendEvent(bus.Event{
			Name:    bus.EventSetCoverSize,
			Payload: map[string]any{"size": m.coverSize + 4},
		})
		return m, nil
	case "-":
		m.bus.SendEvent(bus.Event{
			Name:    bus.EventSetCoverSize,
			Payload: map[string]any{"size": m.coverSize - 4},
		})
		return m, nil

	case "d":
		m.showDebug = !m.showDebug
		return m, nil

	case "up", "k":
		m.moveCursor(-1)
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		return m, nil
	case "pgup":
		m.moveCursor(-m.viewportRows())
		return m, nil
	case "pgdown":
		m.moveCursor(m.viewportRows())
		return m, nil
	case "home":
		m.cursor = 0
		m.query.ScrollOffset = 0
		return m, nil
	case "end":
		m.cursor = m.resultTotal() - 1
		m.clampScroll()
		return m, nil
	}

	return m, nil
}

func (m *Model) cycleCategory(step int) {
	cats := core.Categories()
	idx := 0
	for i, c := range cats {
		if c == m.query.Category {
			idx = i
			break
		}
	}
	idx = (idx + step + len(cats)) % len(cats)
	m.query.Category = cats[idx]
	m.resetCursor()
}

func (m *Model) applySort(key view.SortKey) {
	m.query.SortKey, m.query.SortDesc = view.NextSort(m.query.SortKey, m.query.SortDesc, key)
	m.resetCursor()
}

func (m *Model) resetCursor() {
	m.cursor = 0
	m.query.ScrollOffset = 0
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampScroll()
}

// clampScroll keeps the cursor in range and the viewport positioned so the
// cursor stays visible.
func (m *Model) clampScroll() {
	total := m.resultTotal()
	if total == 0 {
		m.cursor = 0
		m.query.ScrollOffset = 0
		return
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor > total-1 {
		m.cursor = total - 1
	}

	viewport := m.viewportRows()
	if m.cursor < m.query.ScrollOffset {
		m.query.ScrollOffset = m.cursor
	}
	if m.cursor >= m.query.ScrollOffset+viewport {
		m.query.ScrollOffset = m.cursor - viewport + 1
	}
	if m.query.ScrollOffset < 0 {
		m.query.ScrollOffset = 0
	}
}

// viewportRows is how many result rows fit between the chrome lines.
func (m *Model) viewportRows() int {
	// header + tabs + column header + status bar
	chrome := 4
	if m.showDebug {
		chrome += debugPaneHeight + 1
	}
	rows := (m.height - chrome) / m.rowHeight()
	if rows < 1 {
		rows = 1
	}
	return rows
}

// rowHeight is the rendered height of one row: one line, plus the episode
// timeline line when the watch-info column is shown.
func (m *Model) rowHeight() int {
	if m.columns[prefs.ColumnWatchInfo] {
		return 2
	}
	return 1
}

func (m *Model) resultTotal() int {
	q := m.query
	q.ViewportRows = 1
	q.ScrollOffset = 0
	return m.engine.Evaluate(m.rows, q, 1).Total
}

func (m *Model) selectedRow() (core.Row, bool) {
	q := m.query
	q.ViewportRows = m.viewportRows()
	w := m.engine.Evaluate(m.rows, q, m.rowHeight())
	idx := m.cursor - w.Start
	if idx < 0 || idx >= len(w.Rows) {
		return core.Row{}, false
	}
	return w.Rows[idx], true
}
