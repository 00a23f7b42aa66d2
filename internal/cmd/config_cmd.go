package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Digital-Shane/track-tidy/internal/tui"
)

// RunConfigCommand launches the configuration UI.
func RunConfigCommand(args []string) error {
	model, err := tui.NewConfigModel()
	if err != nil {
		return fmt.Errorf("failed to initialize config UI: %w", err)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run config UI: %w", err)
	}

	return nil
}
