package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the UI until the user quits or ctx is done
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
