package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/chapterly/internal/constants"
	"github.com/julianstephens/chapterly/internal/pace"
	"github.com/julianstephens/chapterly/internal/tui/components/booklist"
	"github.com/julianstephens/chapterly/internal/tui/components/chapters"
	"github.com/julianstephens/chapterly/internal/tui/forms"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == StateNoteForm || m.state == StatePlanForm {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case booklist.OpenBookMsg:
		if m.reloadBook(msg.Title) {
			m.state = StateChapters
			m.status, m.errMsg = "", ""
		}
		return m, nil

	case booklist.ToggleCompletedMsg:
		if _, err := m.library.SetCompleted(msg.Title, msg.Done); err != nil {
			m.setError(err)
		} else if msg.Done {
			m.setStatus(fmt.Sprintf("Marked %q completed", msg.Title))
		} else {
			m.setStatus(fmt.Sprintf("Moved %q back to reading", msg.Title))
		}
		m.reloadBooks()
		m.reloadStats()
		return m, nil

	case chapters.ToggleChapterMsg:
		title := m.chapterView.Book().Title
		if _, err := m.library.MarkChapter(title, msg.Index, msg.Done); err != nil {
			m.setError(err)
		}
		m.reloadBook(title)
		return m, nil

	case chapters.WriteNoteMsg:
		book := m.chapterView.Book()
		m.noteChapter = msg.Index
		m.noteForm = &forms.NoteForm{}
		if existing, err := m.notes.Get(book.Title, msg.Index); err == nil {
			m.noteForm.Content = existing.Content
		}
		m.form = forms.NewNoteForm(book.ChapterTitle(msg.Index), m.noteForm)
		m.state = StateNoteForm
		return m, m.form.Init()

	case chapters.EditPlanMsg:
		m.planForm = &forms.PlanForm{Mode: constants.PlanModeDate}
		if p := m.chapterView.Book().Plan; p != nil && p.Mode != "" {
			m.planForm.Mode = p.Mode
		}
		m.form = forms.NewPlanForm(m.planForm)
		m.state = StatePlanForm
		return m, m.form.Init()

	case chapters.BackMsg:
		m.state = StateBooks
		m.reloadBooks()
		m.reloadStats()
		return m, nil

	case tea.KeyMsg:
		if !m.filtering() {
			switch {
			case key.Matches(msg, m.keys.Quit):
				m.quitting = true
				return m, tea.Quit
			case key.Matches(msg, m.keys.Help):
				m.help.ShowAll = !m.help.ShowAll
				return m, nil
			case key.Matches(msg, m.keys.Tab, m.keys.ShiftTab):
				switch m.state {
				case StateBooks:
					m.state = StateStats
				case StateStats:
					m.state = StateBooks
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case StateBooks:
		m.bookList, cmd = m.bookList.Update(msg)
	case StateChapters:
		m.chapterView, cmd = m.chapterView.Update(msg)
	}
	return m, cmd
}

func (m Model) filtering() bool {
	switch m.state {
	case StateBooks:
		return m.bookList.Filtering()
	case StateChapters:
		return m.chapterView.Filtering()
	}
	return false
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.closeForm()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		title := m.chapterView.Book().Title
		if m.state == StateNoteForm {
			m.saveNote(title)
		} else {
			m.savePlan(title)
		}
		m.closeForm()
		m.reloadBook(title)
		m.reloadStats()
		return m, nil
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

func (m *Model) closeForm() {
	m.form = nil
	m.noteForm = nil
	m.planForm = nil
	m.state = StateChapters
}

func (m *Model) saveNote(title string) {
	note, _, err := m.notes.Write(title, m.noteChapter, m.noteForm.Content)
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus(fmt.Sprintf("Saved note for %s", note.ChapterTitle))
}

func (m *Model) savePlan(title string) {
	b, err := m.library.SetPlan(title, pace.Edit{Mode: m.planForm.Mode, Value: m.planForm.Value}, false)
	if err != nil {
		m.setError(err)
		return
	}
	if b.Plan != nil && b.Plan.IsPlanned() {
		m.setStatus("Plan set, finish by " + b.Plan.EndDate())
	} else {
		m.setStatus("Plan cleared")
	}
}
