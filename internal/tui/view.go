package tui

import (
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateBooks:
		content = docStyle.Render(m.bookList.View())
	case StateStats:
		content = docStyle.Render(m.statsView.View())
	case StateChapters:
		content = docStyle.Render(m.chapterView.View())
	case StateNoteForm, StatePlanForm:
		content = docStyle.Render(m.form.View())
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		m.viewStatus(),
		content,
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	active := 0
	if m.state == StateStats {
		active = 1
	}
	tabs := make([]string, len(tabTitles))
	for i, title := range tabTitles {
		if i == active {
			tabs[i] = activeTabStyle.Render(title)
		} else {
			tabs[i] = inactiveTabStyle.Render(title)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewStatus() string {
	switch {
	case m.errMsg != "":
		return dangerStyle.Render("✗ " + m.errMsg)
	case m.status != "":
		return statusStyle.Render(m.status)
	}
	return ""
}
