// Package cmd wires the table view, config, and logs commands.
package cmd

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Digital-Shane/track-tidy/internal/bus"
	"github.com/Digital-Shane/track-tidy/internal/collection"
	"github.com/Digital-Shane/track-tidy/internal/config"
	"github.com/Digital-Shane/track-tidy/internal/controller"
	"github.com/Digital-Shane/track-tidy/internal/enrich"
	"github.com/Digital-Shane/track-tidy/internal/library"
	"github.com/Digital-Shane/track-tidy/internal/log"
	"github.com/Digital-Shane/track-tidy/internal/prefs"
	"github.com/Digital-Shane/track-tidy/internal/tracker"
	"github.com/Digital-Shane/track-tidy/internal/tui"
)

// programNotifier forwards controller notifications into the running
// Bubble Tea program as toast messages.
type programNotifier struct {
	program *tea.Program
}

func (n *programNotifier) Success(message string) {
	n.program.Send(tui.NotifyMsg{Level: tui.NotifySuccess, Message: message})
}

func (n *programNotifier) Error(message string) {
	n.program.Send(tui.NotifyMsg{Level: tui.NotifyError, Message: message})
}

func (n *programNotifier) Info(message string) {
	n.program.Send(tui.NotifyMsg{Level: tui.NotifyInfo, Message: message})
}

// RunTableCommand starts the interactive library table.
func RunTableCommand(cfg *config.Config) error {
	if cfg.Username == "" {
		return fmt.Errorf("no username configured; run `track-tidy config` first")
	}

	log.Initialize(cfg.EnableLogging, cfg.LogRetentionDays)
	log.StartSession("table")
	defer func() {
		if err := log.EndSession(); err != nil {
			fmt.Printf("Warning: failed to save session log: %v\n", err)
		}
	}()

	store, err := openPreferenceStore()
	if err != nil {
		return err
	}
	defer store.Close()

	client := tracker.NewHTTPClient(tracker.HTTPClientConfig{
		Username: cfg.Username,
		Token:    cfg.Token,
		Endpoint: cfg.Endpoint,
	})

	inspector, err := buildInspector(cfg)
	if err != nil {
		return err
	}

	b := bus.New(0)
	loader := collection.NewLoader(client)
	enricher := enrich.NewEnricher(inspector, cfg.WorkerCount)

	model := tui.NewModel(b)
	program := tea.NewProgram(model, tea.WithAltScreen())

	ctrl := controller.New(controller.Config{
		Loader:   loader,
		Enricher: enricher,
		Bus:      b,
		Store:    store,
		Notifier: &programNotifier{program: program},
		Navigate: openTitlePage,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ctrl.Run(ctx)
	b.SendEvent(bus.Event{Name: bus.EventRefresh})

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("table view failed: %w", err)
	}
	return nil
}

// buildInspector constructs the library scanner when a library root is
// configured. Without one enrichment runs with no local file data.
func buildInspector(cfg *config.Config) (library.Inspector, error) {
	if cfg.LibraryRoot == "" {
		return nil, nil
	}
	scanner, err := library.NewScanner(library.ScannerConfig{
		Root:            cfg.LibraryRoot,
		MappingPath:     cfg.LibraryMapping,
		VerifyDownloads: cfg.VerifyDownloads,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize library scanner: %w", err)
	}
	return scanner, nil
}

func openPreferenceStore() (*prefs.BoltStore, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	return prefs.OpenBolt(filepath.Join(dir, "track-tidy.db"))
}

// titlePageURL is the service page for a title.
func titlePageURL(mediaID int) string {
	return fmt.Sprintf("https://anilist.co/anime/%d", mediaID)
}

// openTitlePage opens the service page for a title in the default browser.
// Failures are silent; there is nothing useful to surface mid-session.
func openTitlePage(mediaID int) {
	url := titlePageURL(mediaID)

	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", url)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		c = exec.Command("xdg-open", url)
	}
	_ = c.Start()
}
