package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Digital-Shane/track-tidy/internal/core"
	"github.com/Digital-Shane/track-tidy/internal/prefs"
	"github.com/Digital-Shane/track-tidy/internal/tui/theme"
	"github.com/Digital-Shane/track-tidy/internal/view"
)

const debugPaneHeight = 8

var categoryLabels = map[core.Category]string{
	core.CategoryCurrent:   "Watching",
	core.CategoryCompleted: "Completed",
	core.CategoryPaused:    "Paused",
	core.CategoryDropped:   "Dropped",
	core.CategoryPlanning:  "Planning",
}

// View renders the full screen.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	b.WriteString(m.renderTabs())
	b.WriteByte('\n')
	b.WriteString(m.renderColumnHeader())
	b.WriteByte('\n')
	b.WriteString(m.renderTable())
	if m.showDebug {
		b.WriteByte('\n')
		b.WriteString(m.renderDebugPane())
	}
	b.WriteByte('\n')
	b.WriteString(m.renderStatusBar())

	return b.String()
}

func (m *Model) renderHeader() string {
	title := fmt.Sprintf("%s track-tidy", m.theme.Icon("tv"))
	return m.theme.HeaderStyle().Width(m.width).Render(title)
}

func (m *Model) renderTabs() string {
	counts := make(map[core.Category]int)
	for _, row := range m.rows {
		counts[row.Status]++
	}

	tabs := make([]string, 0, len(core.Categories()))
	for i, cat := range core.Categories() {
		label := fmt.Sprintf("%d %s (%d)", i+1, categoryLabels[cat], counts[cat])
		tabs = append(tabs, m.theme.TabStyle(cat == m.query.Category).Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// columnLayout describes one visible column's header label and width.
type columnLayout struct {
	id    prefs.Column
	label string
	width int
}

// layoutColumns computes the visible columns and their widths for the
// current terminal width. Title absorbs whatever the fixed columns leave.
func (m *Model) layoutColumns() []columnLayout {
	gap := m.theme.Spacing().ColumnGap

	fixed := []columnLayout{}
	if m.columns[prefs.ColumnCover] {
		fixed = append(fixed, columnLayout{prefs.ColumnCover, "Cover", m.coverCellWidth()})
	}
	if m.columns[prefs.ColumnProgress] {
		fixed = append(fixed, columnLayout{prefs.ColumnProgress, "Progress", 9})
	}
	if m.columns[prefs.ColumnScore] {
		fixed = append(fixed, columnLayout{prefs.ColumnScore, "Score", 6})
	}
	if m.columns[prefs.ColumnFormat] {
		fixed = append(fixed, columnLayout{prefs.ColumnFormat, "Format", 8})
	}
	if m.columns[prefs.ColumnStatus] {
		fixed = append(fixed, columnLayout{prefs.ColumnStatus, "Status", 10})
	}
	if m.columns[prefs.ColumnWatchInfo] {
		fixed = append(fixed, columnLayout{prefs.ColumnWatchInfo, "Watch Info", 20})
	}

	used := 0
	for _, c := range fixed {
		used += c.width + gap
	}

	cols := []columnLayout{}
	if m.columns[prefs.ColumnCover] {
		cols = append(cols, fixed[0])
		fixed = fixed[1:]
	}
	if m.columns[prefs.ColumnTitle] {
		titleWidth := m.width - used - gap
		if titleWidth < 12 {
			titleWidth = 12
		}
		cols = append(cols, columnLayout{prefs.ColumnTitle, "Title", titleWidth})
	}
	cols = append(cols, fixed...)
	return cols
}

// coverCellWidth scales the preferred thumbnail size into terminal cells.
func (m *Model) coverCellWidth() int {
	w := m.coverSize / 8
	if w < 3 {
		w = 3
	}
	return w
}

func (m *Model) renderColumnHeader() string {
	gap := strings.Repeat(" ", m.theme.Spacing().ColumnGap)
	style := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Colors().Muted)

	parts := make([]string, 0, 8)
	for _, col := range m.layoutColumns() {
		label := col.label
		if key, ok := sortKeyForColumn(col.id); ok && key == m.query.SortKey {
			if m.query.SortDesc {
				label += " ↓"
			} else {
				label += " ↑"
			}
		}
		parts = append(parts, pad(label, col.width))
	}
	return style.Render(strings.Join(parts, gap))
}

func sortKeyForColumn(id prefs.Column) (view.SortKey, bool) {
	switch id {
	case prefs.ColumnTitle:
		return view.SortTitle, true
	case prefs.ColumnProgress:
		return view.SortProgress, true
	case prefs.ColumnScore:
		return view.SortScore, true
	case prefs.ColumnFormat:
		return view.SortFormat, true
	default:
		return "", false
	}
}

func (m *Model) renderTable() string {
	q := m.query
	q.ViewportRows = m.viewportRows()
	w := m.engine.Evaluate(m.rows, q, m.rowHeight())

	if w.Total == 0 {
		empty := "no titles match"
		if m.loading {
			empty = "loading library…"
		}
		return lipgloss.NewStyle().
			Foreground(m.theme.Colors().Muted).
			Width(m.width).
			Align(lipgloss.Center).
			Render(empty)
	}

	viewport := m.viewportRows()
	lines := make([]string, 0, viewport*m.rowHeight())

	for i := m.query.ScrollOffset; i < w.Total && i < m.query.ScrollOffset+viewport; i++ {
		idx := i - w.Start
		if idx < 0 || idx >= len(w.Rows) {
			break
		}
		lines = append(lines, m.renderRow(w.Rows[idx], i == m.cursor))
	}

	return strings.Join(lines, "\n")
}

func (m *Model) renderRow(row core.Row, selected bool) string {
	gap := strings.Repeat(" ", m.theme.Spacing().ColumnGap)

	parts := make([]string, 0, 8)
	for _, col := range m.layoutColumns() {
		parts = append(parts, pad(m.renderCell(row, col), col.width))
	}
	line := strings.Join(parts, gap)
	if selected {
		line = m.theme.SelectedRowStyle().Render(line)
	}

	if m.columns[prefs.ColumnWatchInfo] {
		line += "\n" + m.renderTimeline(row)
	}
	return line
}

func (m *Model) renderCell(row core.Row, col columnLayout) string {
	switch col.id {
	case prefs.ColumnCover:
		return strings.Repeat("▄", col.width)
	case prefs.ColumnTitle:
		return row.Title
	case prefs.ColumnProgress:
		return fmt.Sprintf("%d/%s", row.Progress, countLabel(row.TotalEpisodes))
	case prefs.ColumnScore:
		if row.Score == 0 {
			return "—"
		}
		return fmt.Sprintf("%.1f%s", row.Score, m.theme.Icon("score"))
	case prefs.ColumnFormat:
		if row.Format == "" {
			return "—"
		}
		return row.Format
	case prefs.ColumnStatus:
		return categoryLabels[row.Status]
	case prefs.ColumnWatchInfo:
		return m.renderWatchInfo(row)
	default:
		return ""
	}
}

// renderWatchInfo summarizes release/download state for one row.
func (m *Model) renderWatchInfo(row core.Row) string {
	if !row.ReleasedUnwatched.Known() {
		return "—"
	}
	if !row.Enriched() {
		return fmt.Sprintf("%d new", row.ReleasedUnwatched.Value())
	}
	return fmt.Sprintf("%d new · %d dl · %d need",
		row.ReleasedUnwatched.Value(),
		row.DownloadedUnwatched.Value(),
		row.NeededToDownload.OrElse(0))
}

// renderTimeline draws the per-episode state glyph strip under a row.
func (m *Model) renderTimeline(row core.Row) string {
	if len(row.EpisodeStatuses) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("  ")
	if row.HiddenEpisodeStatusCount > 0 {
		b.WriteString(lipgloss.NewStyle().
			Foreground(m.theme.Colors().Muted).
			Render(fmt.Sprintf("+%d ⋯ ", row.HiddenEpisodeStatusCount)))
	}
	for _, es := range row.EpisodeStatuses {
		glyph := m.theme.Icon(string(es.State))
		b.WriteString(m.theme.EpisodeStyle(string(es.State)).Render(glyph))
	}
	return truncate(b.String(), m.width)
}

func (m *Model) renderDebugPane() string {
	style := lipgloss.NewStyle().Foreground(m.theme.Colors().Muted)

	entries := m.debugLog
	if len(entries) > debugPaneHeight {
		entries = entries[len(entries)-debugPaneHeight:]
	}

	lines := make([]string, 0, debugPaneHeight)
	for _, e := range entries {
		lines = append(lines, truncate(
			fmt.Sprintf("%s %s", e.Time.Format("15:04:05"), e.Message), m.width))
	}
	for len(lines) < debugPaneHeight {
		lines = append(lines, "")
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderStatusBar() string {
	var left string
	switch {
	case m.searching:
		left = m.theme.Icon("search") + " " + m.search.View()
	case m.errMsg != "":
		left = m.theme.BadgeStyle(theme.BadgeError).Render(m.errMsg)
	case m.toast != "":
		left = m.theme.BadgeStyle(m.toastKind).Render(m.toast)
	case m.loading:
		left = m.spinner.View() + " loading library"
	case m.enriching:
		left = m.spinner.View() + " loading episode data"
	default:
		left = "r refresh · e episodes · / search · w watch info · d logs · q quit"
	}

	total := m.resultTotal()
	right := fmt.Sprintf("%d/%d", m.cursor+1, total)
	if total == 0 {
		right = "0/0"
	}

	leftWidth := m.width - runewidth.StringWidth(right) - 3
	if leftWidth < 0 {
		leftWidth = 0
	}
	bar := pad(truncate(left, leftWidth), leftWidth) + " " + right
	return m.theme.StatusBarStyle().Width(m.width).Render(bar)
}

func countLabel(c core.Count) string {
	if !c.Known() {
		return "?"
	}
	return fmt.Sprintf("%d", c.Value())
}

// pad right-pads or truncates s to exactly width display cells.
func pad(s string, width int) string {
	s = truncate(s, width)
	for runewidth.StringWidth(s) < width {
		s += " "
	}
	return s
}

// truncate cuts s to at most width display cells with an ellipsis.
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
