package booklist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/pace"
)

type OpenBookMsg struct {
	Title string
}

type ToggleCompletedMsg struct {
	Title string
	Done  bool
}

type Item struct {
	Book   models.Book
	Status pace.Progress
}

func (i Item) Title() string {
	if i.Book.IsCompleted {
		return "✓ " + i.Book.Title
	}
	return "○ " + i.Book.Title
}

func (i Item) Description() string {
	desc := fmt.Sprintf("%.0f%% · %d/%d chapters", i.Book.Progress, len(i.Book.CompletedChapters), i.Book.ChapterCount())
	switch {
	case i.Book.IsCompleted:
		return desc + " · completed"
	case !i.Status.Planned:
		return desc
	case i.Status.OnTrack():
		return desc + " · on track"
	default:
		return fmt.Sprintf("%s · %d behind", desc, i.Status.Behind())
	}
}

func (i Item) FilterValue() string { return i.Book.Title + " " + i.Book.Author }

type KeyMap struct {
	Open     key.Binding
	Complete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Complete: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle completed"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(items []Item, width, height int) Model {
	l := list.New(toListItems(items), list.NewDefaultDelegate(), width, height)
	l.Title = "Books"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Open, keys.Complete}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	return Model{list: l, keys: keys}
}

func toListItems(items []Item) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

func (m *Model) SetItems(items []Item) {
	m.list.SetItems(toListItems(items))
}

// Filtering reports whether the user is typing a filter, in which case
// global key bindings must not fire.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && !m.Filtering() {
		switch {
		case key.Matches(msg, m.keys.Open):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return OpenBookMsg{Title: i.Book.Title} }
			}
		case key.Matches(msg, m.keys.Complete):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return ToggleCompletedMsg{Title: i.Book.Title, Done: !i.Book.IsCompleted} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return "\n  No books yet.\n  Add one with 'chapterly book add'."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
