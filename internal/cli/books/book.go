package books

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/chapterly/internal/chapters"
	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/constants"
	"github.com/julianstephens/chapterly/internal/library"
	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/tui/forms"
)

type BookAddCmd struct {
	Title        string `arg:"" optional:"" help:"Book title."`
	Author       string `help:"Author."`
	Publisher    string `help:"Publisher."`
	ISBN         string `name:"isbn" help:"ISBN."`
	Cover        string `help:"Cover image URL."`
	Pages        int    `help:"Total pages."`
	Chapters     string `help:"Chapter list, one per line."`
	ChaptersFile string `name:"chapters-file" short:"f" help:"Read the chapter list from a file ('-' for stdin)."`
	FromCatalog  string `name:"from-catalog" help:"Use the most selected chapter set of this book info ID."`
	Interactive  bool   `short:"i" help:"Fill in the book with an interactive form."`
}

func (c *BookAddCmd) Run(ctx *cli.Context) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}

	var in library.NewBook
	if c.Interactive {
		fm := &forms.BookForm{Title: c.Title, Author: c.Author, Publisher: c.Publisher, ISBN: c.ISBN}
		if err := forms.NewBookForm(fm).Run(); err != nil {
			return err
		}
		if in, err = fm.NewBook(); err != nil {
			return err
		}
	} else {
		text, err := cli.ReadText(c.Chapters, c.ChaptersFile)
		if err != nil {
			return err
		}
		in = library.NewBook{
			Title:       c.Title,
			Author:      c.Author,
			Publisher:   c.Publisher,
			ISBN:        c.ISBN,
			Cover:       c.Cover,
			Pages:       c.Pages,
			ChapterText: text,
		}
	}

	if c.FromCatalog != "" {
		if err := c.applyCatalog(ctx, &in); err != nil {
			return err
		}
	}

	book, err := lib.AddBook(in)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Added %q with %d chapter(s)\n", book.Title, book.TotalChapters)
	return nil
}

// applyCatalog fills chapters and missing details from the catalog and
// counts the pick as a vote for that chapter set.
func (c *BookAddCmd) applyCatalog(ctx *cli.Context, in *library.NewBook) error {
	cat, err := ctx.Catalog()
	if err != nil {
		return err
	}
	info, err := cat.GetBookInfo(c.FromCatalog)
	if err != nil {
		return err
	}
	sets, err := cat.ListChapterSets(info.ID)
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return fmt.Errorf("no chapter sets recorded for %q yet", info.Title)
	}
	top := sets[0]
	in.BookInfoID = info.ID
	in.ChapterText = chapters.FormatList(top.ChapterList)
	if in.Title == "" {
		in.Title = info.Title
	}
	if in.Author == "" {
		in.Author = info.Author
	}
	if in.Publisher == "" {
		in.Publisher = info.Publisher
	}
	if in.ISBN == "" {
		in.ISBN = info.ISBN
	}

	user, err := ctx.User()
	if err != nil {
		logger.Debug("Not recording chapter set vote", "error", err)
		return nil
	}
	if _, err := cat.SubmitChapterSet(info.ID, top.OriginalInput, user); err != nil {
		logger.Warn("Failed to record chapter set vote", "error", err)
	}
	return nil
}

type BookListCmd struct {
	Shelf string `help:"Shelf to list: reading, completed or all." enum:"reading,completed,all" default:"all"`
}

func (c *BookListCmd) Run(ctx *cli.Context) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}
	shelf := constants.ShelfKind(c.Shelf)
	if c.Shelf == "all" {
		shelf = ""
	}
	list, err := lib.Books(shelf)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No books yet. Add one with 'chapterly book add'.")
		return nil
	}
	for _, b := range list {
		mark := " "
		if b.IsCompleted {
			mark = "✓"
		}
		fmt.Printf("%s %-40s %s %3.0f%%  %d/%d", mark, b.Title, progressBar(b.Progress, 20), b.Progress, len(b.CompletedChapters), b.ChapterCount())
		if b.Plan != nil && b.Plan.IsPlanned() {
			fmt.Printf("  until %s", b.Plan.EndDate())
		}
		fmt.Println()
	}
	return nil
}

func progressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

type BookShowCmd struct {
	Title string `arg:"" help:"Book title."`
}

func (c *BookShowCmd) Run(ctx *cli.Context) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}
	b, status, err := lib.PlanStatus(c.Title)
	if err != nil {
		return lib.WithSuggestion(c.Title, err)
	}

	fmt.Println(b.Title)
	if b.Author != "" {
		fmt.Printf("  Author:    %s\n", b.Author)
	}
	if b.Publisher != "" {
		fmt.Printf("  Publisher: %s\n", b.Publisher)
	}
	if b.ISBN != "" {
		fmt.Printf("  ISBN:      %s\n", b.ISBN)
	}
	if b.Pages > 0 {
		fmt.Printf("  Pages:     %d\n", b.Pages)
	}
	fmt.Printf("  Shelf:     %s\n", b.Shelf())
	fmt.Printf("  Progress:  %s %.0f%% (%d of %d chapters)\n", progressBar(b.Progress, 20), b.Progress, len(b.CompletedChapters), b.ChapterCount())
	printPlan(b, status)

	fmt.Println()
	printChapters(b)
	return nil
}

func printChapters(b models.Book) {
	idx := 0
	line := func(title string) {
		mark := "○"
		if b.CompletedChapters.Contains(idx) {
			mark = "●"
		}
		fmt.Printf("  %s %3d. %s\n", mark, idx+1, title)
		idx++
	}
	if len(b.Parts) > 0 {
		for _, p := range b.Parts {
			fmt.Printf("  %s\n", p.Name)
			for _, ch := range p.Chapters {
				line(ch)
			}
		}
		return
	}
	for _, ch := range b.Chapters {
		line(ch)
	}
}

type BookDeleteCmd struct {
	Title     string `arg:"" help:"Book title."`
	KeepNotes bool   `help:"Keep the book's chapter notes."`
}

func (c *BookDeleteCmd) Run(ctx *cli.Context) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}
	if err := lib.DeleteBook(c.Title); err != nil {
		return lib.WithSuggestion(c.Title, err)
	}
	removed := 0
	if !c.KeepNotes {
		ns, err := ctx.Notes()
		if err != nil {
			return err
		}
		list, err := ns.ForBook(c.Title)
		if err != nil {
			return err
		}
		var errs []error
		for _, n := range list {
			if err := ns.Delete(n.BookTitle, n.ChapterIndex); err != nil {
				errs = append(errs, err)
				continue
			}
			removed++
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("book deleted but some notes remain: %w", err)
		}
	}
	fmt.Printf("✓ Deleted %q", c.Title)
	if removed > 0 {
		fmt.Printf(" and %d note(s)", removed)
	}
	fmt.Println()
	return nil
}

type BookCompleteCmd struct {
	Title string `arg:"" help:"Book title."`
	Undo  bool   `help:"Move the book back to the reading shelf."`
}

func (c *BookCompleteCmd) Run(ctx *cli.Context) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}
	b, err := lib.SetCompleted(c.Title, !c.Undo)
	if err != nil {
		return lib.WithSuggestion(c.Title, err)
	}
	fmt.Printf("✓ %q is on the %s shelf\n", b.Title, b.Shelf())
	return nil
}

type ChapterDoneCmd struct {
	Title    string `arg:"" help:"Book title."`
	Chapters []int  `arg:"" help:"Chapter numbers (from 1)."`
}

func (c *ChapterDoneCmd) Run(ctx *cli.Context) error {
	return markChapters(ctx, c.Title, c.Chapters, true)
}

type ChapterUndoCmd struct {
	Title    string `arg:"" help:"Book title."`
	Chapters []int  `arg:"" help:"Chapter numbers (from 1)."`
}

func (c *ChapterUndoCmd) Run(ctx *cli.Context) error {
	return markChapters(ctx, c.Title, c.Chapters, false)
}

func markChapters(ctx *cli.Context, title string, numbers []int, done bool) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}
	var b models.Book
	for _, n := range numbers {
		idx, err := cli.ChapterIndex(n)
		if err != nil {
			return err
		}
		if b, err = lib.MarkChapter(title, idx, done); err != nil {
			return lib.WithSuggestion(title, err)
		}
	}
	fmt.Printf("✓ %s: %.0f%% (%d of %d chapters)\n", b.Title, b.Progress, len(b.CompletedChapters), b.ChapterCount())
	if done && len(b.CompletedChapters) == b.ChapterCount() && !b.IsCompleted {
		fmt.Printf("All chapters read. Run 'chapterly book complete %q' to shelve it.\n", b.Title)
	}
	return nil
}
