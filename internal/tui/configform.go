package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Digital-Shane/track-tidy/internal/config"
	"github.com/Digital-Shane/track-tidy/internal/tui/theme"
)

// configField indexes the editable fields in display order.
type configField int

const (
	fieldUsername configField = iota
	fieldToken
	fieldEndpoint
	fieldLibraryRoot
	fieldLibraryMapping
	fieldWorkerCount
	fieldVerifyDownloads
	fieldEnableLogging
	fieldCount
)

var configFieldLabels = [fieldCount]string{
	"Username",
	"Access token",
	"API endpoint",
	"Library root",
	"Library mapping file",
	"Enrichment workers",
	"Verify downloads (y/n)",
	"Enable logging (y/n)",
}

// ConfigModel is the Bubble Tea model for the configuration form.
type ConfigModel struct {
	config *config.Config
	theme  theme.Theme

	inputs [fieldCount]textinput.Model
	active configField

	saveStatus string
	width      int
	height     int
}

// NewConfigModel loads the current configuration into an editable form.
func NewConfigModel() (*ConfigModel, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	m := &ConfigModel{
		config: cfg,
		theme:  theme.Default(),
	}

	values := [fieldCount]string{
		cfg.Username,
		cfg.Token,
		cfg.Endpoint,
		cfg.LibraryRoot,
		cfg.LibraryMapping,
		strconv.Itoa(cfg.WorkerCount),
		boolAnswer(cfg.VerifyDownloads),
		boolAnswer(cfg.EnableLogging),
	}

	for i := range m.inputs {
		in := textinput.New()
		in.SetValue(values[i])
		in.CharLimit = 256
		in.Width = 48
		if configField(i) == fieldToken {
			in.EchoMode = textinput.EchoPassword
		}
		m.inputs[i] = in
	}
	m.inputs[fieldUsername].Focus()

	return m, nil
}

func boolAnswer(v bool) string {
	if v {
		return "y"
	}
	return "n"
}

// Init implements tea.Model.
func (m *ConfigModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *ConfigModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		case "tab", "down", "enter":
			m.focusField((m.active + 1) % fieldCount)
			return m, nil
		case "shift+tab", "up":
			m.focusField((m.active + fieldCount - 1) % fieldCount)
			return m, nil
		case "ctrl+s":
			m.save()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.active], cmd = m.inputs[m.active].Update(msg)
	m.saveStatus = ""
	return m, cmd
}

func (m *ConfigModel) focusField(f configField) {
	m.inputs[m.active].Blur()
	m.active = f
	m.inputs[m.active].Focus()
}

// save validates the form back into the config struct and persists it.
func (m *ConfigModel) save() {
	cfg := m.config
	cfg.Username = strings.TrimSpace(m.inputs[fieldUsername].Value())
	cfg.Token = strings.TrimSpace(m.inputs[fieldToken].Value())
	cfg.Endpoint = strings.TrimSpace(m.inputs[fieldEndpoint].Value())
	cfg.LibraryRoot = strings.TrimSpace(m.inputs[fieldLibraryRoot].Value())
	cfg.LibraryMapping = strings.TrimSpace(m.inputs[fieldLibraryMapping].Value())

	if n, err := strconv.Atoi(strings.TrimSpace(m.inputs[fieldWorkerCount].Value())); err == nil && n > 0 {
		cfg.WorkerCount = n
	}
	cfg.VerifyDownloads = parseAnswer(m.inputs[fieldVerifyDownloads].Value())
	cfg.EnableLogging = parseAnswer(m.inputs[fieldEnableLogging].Value())

	if err := cfg.Save(); err != nil {
		m.saveStatus = "save failed: " + err.Error()
		return
	}
	m.saveStatus = "saved"
}

func parseAnswer(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1":
		return true
	default:
		return false
	}
}

// View implements tea.Model.
func (m *ConfigModel) View() string {
	var b strings.Builder

	b.WriteString(m.theme.HeaderStyle().Width(max(m.width, 40)).Render("track-tidy configuration"))
	b.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().Bold(true)
	activeStyle := labelStyle.Foreground(m.theme.Colors().Accent)

	for i := range m.inputs {
		style := labelStyle
		if configField(i) == m.active {
			style = activeStyle
		}
		b.WriteString(style.Render(configFieldLabels[i]))
		b.WriteByte('\n')
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n\n")
	}

	status := "tab next field · ctrl+s save · esc quit"
	if m.saveStatus != "" {
		status = m.saveStatus
	}
	b.WriteString(m.theme.StatusBarStyle().Width(max(m.width, 40)).Render(status))

	return b.String()
}
