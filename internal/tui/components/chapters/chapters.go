package chapters

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/pace"
)

type ToggleChapterMsg struct {
	Index int
	Done  bool
}

type WriteNoteMsg struct {
	Index int
}

type EditPlanMsg struct{}

type BackMsg struct{}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	behind     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type Item struct {
	Index   int
	Name    string
	Done    bool
	HasNote bool
}

func (i Item) Title() string {
	mark := "○"
	if i.Done {
		mark = "✓"
	}
	return fmt.Sprintf("%s %d. %s", mark, i.Index+1, i.Name)
}

func (i Item) Description() string {
	if i.HasNote {
		return "note written"
	}
	return ""
}

func (i Item) FilterValue() string { return i.Name }

type KeyMap struct {
	Toggle key.Binding
	Note   key.Binding
	Plan   key.Binding
	Back   key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "toggle read"),
		),
		Note: key.NewBinding(
			key.WithKeys("n", "enter"),
			key.WithHelp("n", "write note"),
		),
		Plan: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "edit plan"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
	}
}

type Model struct {
	list     list.Model
	keys     KeyMap
	progress progress.Model
	book     models.Book
	status   pace.Progress
	width    int
}

func New(width, height int) Model {
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	l := list.New(nil, d, width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Note, keys.Plan, keys.Back}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	return Model{list: l, keys: keys, progress: progress.New(progress.WithDefaultGradient()), width: width}
}

// SetBook shows book's chapters, flagging those with a personal note.
func (m *Model) SetBook(book models.Book, notes []models.ChapterNote, status pace.Progress) {
	m.book = book
	m.status = status
	noted := make(map[int]bool, len(notes))
	for _, n := range notes {
		noted[n.ChapterIndex] = true
	}
	titles := book.AllChapters()
	items := make([]list.Item, len(titles))
	for i, t := range titles {
		items[i] = Item{Index: i, Name: t, Done: book.CompletedChapters.Contains(i), HasNote: noted[i]}
	}
	m.list.SetItems(items)
}

func (m Model) Book() models.Book {
	return m.book
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && !m.Filtering() {
		switch {
		case key.Matches(msg, m.keys.Back):
			if m.list.FilterState() == list.Unfiltered {
				return m, func() tea.Msg { return BackMsg{} }
			}
		case key.Matches(msg, m.keys.Toggle):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return ToggleChapterMsg{Index: i.Index, Done: !i.Done} }
			}
		case key.Matches(msg, m.keys.Note):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return WriteNoteMsg{Index: i.Index} }
			}
		case key.Matches(msg, m.keys.Plan):
			return m, func() tea.Msg { return EditPlanMsg{} }
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) header() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.book.Title))
	if m.book.Author != "" {
		b.WriteString(dimStyle.Render("  " + m.book.Author))
	}
	b.WriteString("\n")
	b.WriteString(m.progress.ViewAs(m.book.Progress / 100))
	b.WriteString("\n")

	plan := m.book.Plan
	switch {
	case plan == nil || !plan.IsPlanned():
		b.WriteString(dimStyle.Render("No plan. Press p to set one."))
	case m.status.Planned && !m.status.OnTrack():
		b.WriteString(behind.Render(fmt.Sprintf("Finish by %s · %d chapter(s) behind", plan.EndDate(), m.status.Behind())))
	default:
		b.WriteString(fmt.Sprintf("Finish by %s · on track", plan.EndDate()))
	}
	return b.String()
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.header() + "\n\n  This book has no chapters."
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), "", m.list.View())
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.progress.Width = min(width, 60)
	// title, progress bar, plan line and a spacer
	m.list.SetSize(width, max(height-4, 1))
}
