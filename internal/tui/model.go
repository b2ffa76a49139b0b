// Package tui is the interactive reading dashboard: the book shelf, a
// chapter checklist per book with notes and plans, and reading stats.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/chapterly/internal/library"
	"github.com/julianstephens/chapterly/internal/notes"
	"github.com/julianstephens/chapterly/internal/stats"
	"github.com/julianstephens/chapterly/internal/tui/components/booklist"
	"github.com/julianstephens/chapterly/internal/tui/components/chapters"
	statsview "github.com/julianstephens/chapterly/internal/tui/components/stats"
	"github.com/julianstephens/chapterly/internal/tui/forms"
)

type SessionState int

const (
	StateBooks SessionState = iota
	StateStats
	StateChapters
	StateNoteForm
	StatePlanForm
)

var tabTitles = []string{"Books", "Stats"}

type Model struct {
	library   *library.Service
	notes     *notes.Service
	statsOpts stats.Options
	now       func() time.Time

	state       SessionState
	keys        KeyMap
	help        help.Model
	bookList    booklist.Model
	chapterView chapters.Model
	statsView   statsview.Model

	form        *huh.Form
	noteForm    *forms.NoteForm
	planForm    *forms.PlanForm
	noteChapter int

	status   string
	errMsg   string
	quitting bool
	width    int
	height   int
}

func NewModel(lib *library.Service, notesSvc *notes.Service, opts stats.Options) Model {
	m := Model{
		library:     lib,
		notes:       notesSvc,
		statsOpts:   opts,
		now:         time.Now,
		state:       StateBooks,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		bookList:    booklist.New(nil, 0, 0),
		chapterView: chapters.New(0, 0),
		statsView:   statsview.New(),
	}
	m.reloadBooks()
	m.reloadStats()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateBooks:
		bk := booklist.DefaultKeyMap()
		keys = append([]key.Binding{m.keys.Tab, bk.Open, bk.Complete}, keys...)
	case StateStats:
		keys = append([]key.Binding{m.keys.Tab}, keys...)
	case StateChapters:
		ck := chapters.DefaultKeyMap()
		keys = append([]key.Binding{ck.Toggle, ck.Note, ck.Plan, ck.Back}, keys...)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Filter}

	var actions []key.Binding
	switch m.state {
	case StateBooks:
		bk := booklist.DefaultKeyMap()
		actions = []key.Binding{bk.Open, bk.Complete}
	case StateChapters:
		ck := chapters.DefaultKeyMap()
		actions = []key.Binding{ck.Toggle, ck.Note, ck.Plan, ck.Back}
	}
	return [][]key.Binding{global, navigation, actions}
}

func (m *Model) setError(err error) {
	m.status = ""
	m.errMsg = err.Error()
}

func (m *Model) setStatus(s string) {
	m.errMsg = ""
	m.status = s
}

func (m *Model) reloadBooks() {
	books, err := m.library.Books("")
	if err != nil {
		m.setError(err)
		return
	}
	items := make([]booklist.Item, len(books))
	for i, b := range books {
		items[i] = booklist.Item{Book: b}
		if _, status, err := m.library.PlanStatus(b.Title); err == nil {
			items[i].Status = status
		}
	}
	m.bookList.SetItems(items)
}

// reloadBook refreshes the chapter view for title.
func (m *Model) reloadBook(title string) bool {
	book, status, err := m.library.PlanStatus(title)
	if err != nil {
		m.setError(err)
		return false
	}
	bookNotes, err := m.notes.ForBook(book.Title)
	if err != nil {
		m.setError(err)
		return false
	}
	m.chapterView.SetBook(book, bookNotes, status)
	return true
}

func (m *Model) reloadStats() {
	books, err := m.library.Books("")
	if err != nil {
		m.setError(err)
		return
	}
	all, err := m.notes.History(notes.Filter{})
	if err != nil {
		m.setError(err)
		return
	}
	m.statsView.SetSummary(stats.Compute(books, all, m.now(), m.statsOpts))
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	// tabs, status line, help and padding
	h := max(height-8, 1)
	w := max(width-4, 1)
	m.bookList.SetSize(w, h)
	m.chapterView.SetSize(w, h)
	m.statsView.SetSize(w, h)
}
