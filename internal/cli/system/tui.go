package system

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/stats"
	"github.com/julianstephens/chapterly/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}
	notesSvc, err := ctx.Notes()
	if err != nil {
		return err
	}
	opts := stats.Options{Location: ctx.Location(), WeekStartsMonday: ctx.Settings().WeekStartsMonday}
	p := tea.NewProgram(tui.NewModel(lib, notesSvc, opts), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
