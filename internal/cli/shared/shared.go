package shared

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/shared"
)

type SharedCreateCmd struct {
	Title        string `arg:"" help:"Book title."`
	Author       string `help:"Author."`
	Pages        int    `help:"Total pages."`
	Chapters     string `help:"Chapter list, one per line."`
	ChaptersFile string `name:"chapters-file" short:"f" help:"Read the chapter list from a file ('-' for stdin)."`
}

func (c *SharedCreateCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Shared()
	if err != nil {
		return err
	}
	user, err := ctx.User()
	if err != nil {
		return err
	}
	text, err := cli.ReadText(c.Chapters, c.ChaptersFile)
	if err != nil {
		return err
	}
	book, err := svc.Create(user, shared.NewSharedBook{Title: c.Title, Author: c.Author, Pages: c.Pages, ChapterText: text})
	if err != nil {
		return err
	}
	fmt.Printf("✓ Created shared book %q\n", book.Title)
	fmt.Printf("  ID:          %s\n", book.ID)
	fmt.Printf("  Invite code: %s\n", book.InviteCode)
	return nil
}

type SharedJoinCmd struct {
	Code string `arg:"" help:"Invite code."`
}

func (c *SharedJoinCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Shared()
	if err != nil {
		return err
	}
	user, err := ctx.User()
	if err != nil {
		return err
	}
	book, err := svc.Join(user, c.Code)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Joined %q (%d member(s))\n", book.Title, book.MemberCount)
	return nil
}

type SharedListCmd struct{}

func (c *SharedListCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Shared()
	if err != nil {
		return err
	}
	user, err := ctx.User()
	if err != nil {
		return err
	}
	books, err := svc.List(user)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Println("No shared books. Create one with 'shared create' or join with 'shared join'.")
		return nil
	}
	for _, b := range books {
		fmt.Printf("%s  %-30s %2d member(s)  code %s\n", b.ID, b.Title, b.MemberCount, b.InviteCode)
	}
	return nil
}

type SharedShowCmd struct {
	BookID string `arg:"" name:"book-id" help:"Shared book ID."`
}

func (c *SharedShowCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Shared()
	if err != nil {
		return err
	}
	user, err := ctx.User()
	if err != nil {
		return err
	}
	d, err := svc.Detail(user, c.BookID)
	if err != nil {
		return err
	}
	b := d.Book
	fmt.Println(b.Title)
	if b.Author != "" {
		fmt.Printf("  Author:      %s\n", b.Author)
	}
	fmt.Printf("  Chapters:    %d\n", b.TotalChapters)
	if b.Pages > 0 {
		fmt.Printf("  Pages:       %d\n", b.Pages)
	}
	fmt.Printf("  Invite code: %s\n", b.InviteCode)
	fmt.Printf("  Members:\n")
	for _, m := range d.Members {
		fmt.Printf("    %-24s joined %s\n", m.Profile.Name(), humanize.Time(m.JoinedAt))
	}
	return nil
}

type SharedProgressCmd struct {
	BookID string `arg:"" name:"book-id" help:"Shared book ID."`
}

func (c *SharedProgressCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Shared()
	if err != nil {
		return err
	}
	user, err := ctx.User()
	if err != nil {
		return err
	}
	rows, err := svc.Progress(user, c.BookID)
	if err != nil {
		return err
	}
	for _, r := range rows {
		name := r.Member.Profile.Name()
		if r.Member.UserID == user {
			name += " (you)"
		}
		fmt.Printf("  %-28s %3.0f%%  %d chapter(s)\n", name, r.Percent, len(r.Completed))
	}
	return nil
}

type SharedDoneCmd struct {
	BookID   string `arg:"" name:"book-id" help:"Shared book ID."`
	Chapters []int  `arg:"" help:"Chapter numbers (from 1)."`
}

func (c *SharedDoneCmd) Run(ctx *cli.Context) error {
	return markShared(ctx, c.BookID, c.Chapters, true)
}

type SharedUndoCmd struct {
	BookID   string `arg:"" name:"book-id" help:"Shared book ID."`
	Chapters []int  `arg:"" help:"Chapter numbers (from 1)."`
}

func (c *SharedUndoCmd) Run(ctx *cli.Context) error {
	return markShared(ctx, c.BookID, c.Chapters, false)
}

func markShared(ctx *cli.Context, bookID string, numbers []int, done bool) error {
	svc, err := ctx.Shared()
	if err != nil {
		return err
	}
	user, err := ctx.User()
	if err != nil {
		return err
	}
	for _, n := range numbers {
		idx, err := cli.ChapterIndex(n)
		if err != nil {
			return err
		}
		if err := svc.MarkChapter(user, bookID, idx, done); err != nil {
			return err
		}
	}
	verb := "done"
	if !done {
		verb = "not done"
	}
	fmt.Printf("✓ Marked %d chapter(s) %s\n", len(numbers), verb)
	return nil
}
