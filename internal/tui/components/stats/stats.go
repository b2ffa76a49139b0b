package stats

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/chapterly/internal/stats"
)

const recentDays = 7

var (
	labelStyle  = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("240"))
	streakStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
)

type Model struct {
	summary stats.Summary
	bar     progress.Model
}

func New() Model {
	return Model{bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))}
}

func (m *Model) SetSummary(s stats.Summary) {
	m.summary = s
}

func (m Model) goal(label string, g stats.Goal) string {
	pct := float64(g.Percent) / 100
	if pct > 1 {
		pct = 1
	}
	return labelStyle.Render(label) + m.bar.ViewAs(pct) + fmt.Sprintf("  %d/%d", g.Completed, g.Target)
}

func (m Model) View() string {
	s := m.summary
	var b strings.Builder
	b.WriteString(labelStyle.Render("Streak") + streakStyle.Render(fmt.Sprintf("%d day(s)", s.Streak)) + "\n\n")
	b.WriteString(m.goal("This week", s.Weekly) + "\n")
	b.WriteString(m.goal("This month", s.Monthly) + "\n\n")
	b.WriteString(labelStyle.Render("Books") + fmt.Sprintf("%d reading, %d completed\n", s.BooksReading, s.BooksCompleted))
	b.WriteString(labelStyle.Render("Notes") + fmt.Sprintf("%d\n", s.TotalNotes))

	dates := s.Dates()
	if len(dates) == 0 {
		return b.String()
	}
	b.WriteString("\nRecent reading\n")
	for i, d := range dates {
		if i == recentDays {
			break
		}
		b.WriteString(fmt.Sprintf("  %s  %d note(s)\n", d, len(s.Records[d])))
	}
	return b.String()
}

func (m *Model) SetSize(width, _ int) {
	m.bar.Width = min(max(width-30, 10), 50)
}
