package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinelist/internal/models"
	"github.com/desertthunder/cinelist/internal/shared"
	"github.com/desertthunder/cinelist/internal/ui"
)

// cachedLists serves the TUI's list fetches through the runner so the cache fallback applies.
type cachedLists struct{ r *Runner }

func (c cachedLists) Lists(ctx context.Context) ([]models.List, error) {
	if _, err := c.r.loadLists(ctx); err != nil {
		return nil, err
	}
	return c.r.store.Lists(), nil
}

// TUI launches the interactive terminal UI for browsing movies and curating lists.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.UI.LogPath
	if logPath == "" {
		logPath = "./tmp/cinelist-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, ui.Deps{
		Movies: r.movies,
		Lists:  cachedLists{r},
		Remote: r.lists,
		Store:  r.store,
		Logger: fileLogger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	r.saveLists(r.store.Lists())
	return nil
}
