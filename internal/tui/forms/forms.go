// Package forms holds the huh forms shared by the CLI wizard and the TUI.
package forms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/chapterly/internal/chapters"
	"github.com/julianstephens/chapterly/internal/constants"
	"github.com/julianstephens/chapterly/internal/library"
)

// BookForm is the editable state behind NewBookForm.
type BookForm struct {
	Title     string
	Author    string
	Publisher string
	ISBN      string
	Pages     string
	Chapters  string
}

// NewBook converts the form into library input.
func (f *BookForm) NewBook() (library.NewBook, error) {
	pages := 0
	if p := strings.TrimSpace(f.Pages); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return library.NewBook{}, fmt.Errorf("pages must be a whole number")
		}
		pages = n
	}
	return library.NewBook{
		Title:       f.Title,
		Author:      f.Author,
		Publisher:   f.Publisher,
		ISBN:        f.ISBN,
		Pages:       pages,
		ChapterText: f.Chapters,
	}, nil
}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

func optionalCount(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// NewBookForm asks for a book and its chapter list. Lines starting with "#"
// in the chapter list open a part.
func NewBookForm(fm *BookForm) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fm.Title).
				Validate(notEmpty("title")),
			huh.NewInput().
				Title("Author").
				Value(&fm.Author),
			huh.NewInput().
				Title("Publisher").
				Value(&fm.Publisher),
			huh.NewInput().
				Title("ISBN").
				Value(&fm.ISBN),
			huh.NewInput().
				Title("Pages").
				Value(&fm.Pages).
				Validate(optionalCount),
		),
		huh.NewGroup(
			huh.NewText().
				Title("Chapters").
				Description("One per line. Start a line with # to begin a part.").
				Lines(12).
				Value(&fm.Chapters).
				Validate(func(s string) error {
					if len(chapters.ParseList(s)) == 0 {
						return fmt.Errorf("enter at least one chapter")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

// NoteForm is the editable state behind NewNoteForm.
type NoteForm struct {
	Content string
}

// NewNoteForm edits the note for one chapter.
func NewNoteForm(chapterTitle string, fm *NoteForm) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(chapterTitle).
				Lines(10).
				Value(&fm.Content).
				Validate(notEmpty("note")),
		),
	).WithTheme(huh.ThemeDracula())
}

// PlanForm is the editable state behind NewPlanForm.
type PlanForm struct {
	Mode  constants.PlanMode
	Value string
}

// NewPlanForm picks the plan driver and its value.
func NewPlanForm(fm *PlanForm) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[constants.PlanMode]().
				Title("Plan by").
				Options(
					huh.NewOption("Target date", constants.PlanModeDate),
					huh.NewOption("Chapters per day", constants.PlanModeChapter),
					huh.NewOption("Pages per day", constants.PlanModePage),
				).
				Value(&fm.Mode),
			huh.NewInput().
				Title("Value").
				Description("YYYY-MM-DD for a date, otherwise a daily amount").
				Value(&fm.Value),
		),
	).WithTheme(huh.ThemeDracula())
}
