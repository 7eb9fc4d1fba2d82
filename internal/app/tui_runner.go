package app

import (
	"context"
	"errors"

	"github.com/blackwell-systems/libraryctl/internal/unified"
	tea "github.com/charmbracelet/bubbletea"
)

// runTUI opens the unified books table and blocks until the user quits.
func runTUI(ctx context.Context) error {
	lc, err := cfg.List.Controller()
	if err != nil {
		return err
	}

	m := unified.New(unified.Deps{
		Query:   newQueryClient(),
		List:    lc,
		Timeout: cfg.API.Timeout,
		Logger:  logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if final, ok := finalModel.(unified.Model); ok {
		final.Close()
	} else {
		m.Close()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
