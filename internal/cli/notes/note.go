package notes

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/notes"
	"github.com/julianstephens/chapterly/internal/tui/forms"
	"github.com/julianstephens/chapterly/internal/utils"
)

type NoteWriteCmd struct {
	Title       string `arg:"" help:"Book title."`
	Chapter     int    `arg:"" help:"Chapter number (from 1)."`
	Content     string `help:"Note text."`
	File        string `short:"f" help:"Read the note from a file ('-' for stdin)."`
	Interactive bool   `short:"i" help:"Write the note in an editor form."`
}

func (c *NoteWriteCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Notes()
	if err != nil {
		return err
	}
	idx, err := cli.ChapterIndex(c.Chapter)
	if err != nil {
		return err
	}
	content, err := cli.ReadText(c.Content, c.File)
	if err != nil {
		return err
	}
	if c.Interactive {
		lib, err := ctx.Library()
		if err != nil {
			return err
		}
		book, err := lib.Book(c.Title)
		if err != nil {
			return lib.WithSuggestion(c.Title, err)
		}
		fm := &forms.NoteForm{Content: content}
		if existing, err := svc.Get(book.Title, idx); err == nil && content == "" {
			fm.Content = existing.Content
		}
		if err := forms.NewNoteForm(book.ChapterTitle(idx), fm).Run(); err != nil {
			return err
		}
		content = fm.Content
	}
	note, book, err := svc.Write(c.Title, idx, content)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Saved note for %s, chapter %d (%s)\n", note.BookTitle, c.Chapter, note.ChapterTitle)
	fmt.Printf("  Progress: %.0f%%\n", book.Progress)
	return nil
}

type NoteListCmd struct {
	Title string `arg:"" help:"Book title."`
}

func (c *NoteListCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Notes()
	if err != nil {
		return err
	}
	list, err := svc.ForBook(c.Title)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Printf("No notes for %q.\n", c.Title)
		return nil
	}
	for _, n := range list {
		fmt.Printf("  %3d. %-30s %s\n", n.ChapterIndex+1, n.ChapterTitle, touchedAgo(n))
	}
	return nil
}

type NoteShowCmd struct {
	Title   string `arg:"" help:"Book title."`
	Chapter int    `arg:"" help:"Chapter number (from 1)."`
}

func (c *NoteShowCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Notes()
	if err != nil {
		return err
	}
	idx, err := cli.ChapterIndex(c.Chapter)
	if err != nil {
		return err
	}
	n, err := svc.Get(c.Title, idx)
	if err != nil {
		return err
	}
	fmt.Printf("%s, chapter %d: %s\n", n.BookTitle, c.Chapter, n.ChapterTitle)
	fmt.Printf("Updated %s\n\n", touchedAgo(n))
	fmt.Println(n.Content)
	return nil
}

type NoteDeleteCmd struct {
	Title   string `arg:"" help:"Book title."`
	Chapter int    `arg:"" help:"Chapter number (from 1)."`
}

func (c *NoteDeleteCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Notes()
	if err != nil {
		return err
	}
	idx, err := cli.ChapterIndex(c.Chapter)
	if err != nil {
		return err
	}
	if err := svc.Delete(c.Title, idx); err != nil {
		return err
	}
	fmt.Printf("✓ Deleted the note for %s, chapter %d\n", c.Title, c.Chapter)
	return nil
}

type NoteHistoryCmd struct {
	Book   string `help:"Only notes for this book."`
	Search string `short:"s" help:"Only notes containing this text."`
	Since  string `help:"Only notes touched on or after this date (YYYY-MM-DD)."`
	Limit  int    `short:"n" default:"20" help:"Show at most this many notes."`
}

func (c *NoteHistoryCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Notes()
	if err != nil {
		return err
	}
	f := notes.Filter{Book: c.Book, Search: c.Search}
	if c.Since != "" {
		d, err := utils.ParseDate(c.Since)
		if err != nil {
			return err
		}
		y, m, day := d.Date()
		f.Since = time.Date(y, m, day, 0, 0, 0, 0, ctx.Location())
	}
	list, err := svc.History(f)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No notes found.")
		return nil
	}
	if c.Limit > 0 && len(list) > c.Limit {
		list = list[:c.Limit]
	}
	for _, n := range list {
		fmt.Printf("%s  %s, ch. %d %s\n", touchedAgo(n), n.BookTitle, n.ChapterIndex+1, n.ChapterTitle)
		fmt.Printf("    %s\n", preview(n.Content, 72))
	}
	return nil
}

func touchedAgo(n models.ChapterNote) string {
	t, err := utils.ParseTimestamp(n.LastTouched())
	if err != nil {
		return "-"
	}
	return humanize.Time(t)
}

func preview(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
