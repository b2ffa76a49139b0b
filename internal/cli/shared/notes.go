package shared

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/chapterly/internal/cli"
)

type SharedNoteWriteCmd struct {
	BookID  string `arg:"" name:"book-id" help:"Shared book ID."`
	Chapter int    `arg:"" help:"Chapter number (from 1)."`
	Content string `help:"Note text."`
	File    string `short:"f" help:"Read the note from a file ('-' for stdin)."`
}

func (c *SharedNoteWriteCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Shared()
	if err != nil {
		return err
	}
	user, err := ctx.User()
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
	n, err := svc.SaveNote(user, c.BookID, idx, content)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Saved your note on chapter %d (%s)\n", c.Chapter, n.ChapterTitle)
	return nil
}

type SharedNoteListCmd struct {
	BookID  string `arg:"" name:"book-id" help:"Shared book ID."`
	Chapter int    `arg:"" help:"Chapter number (from 1)."`
}

func (c *SharedNoteListCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Shared()
	if err != nil {
		return err
	}
	user, err := ctx.User()
	if err != nil {
		return err
	}
	idx, err := cli.ChapterIndex(c.Chapter)
	if err != nil {
		return err
	}
	list, err := svc.Notes(user, c.BookID, idx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No notes on this chapter yet.")
		return nil
	}
	for _, n := range list {
		fmt.Printf("%s, %s\n", n.Author.Name(), humanize.Time(n.UpdatedAt))
		fmt.Printf("  %s\n\n", n.Content)
	}
	return nil
}

type SharedNoteDeleteCmd struct {
	BookID  string `arg:"" name:"book-id" help:"Shared book ID."`
	Chapter int    `arg:"" help:"Chapter number (from 1)."`
}

func (c *SharedNoteDeleteCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Shared()
	if err != nil {
		return err
	}
	user, err := ctx.User()
	if err != nil {
		return err
	}
	idx, err := cli.ChapterIndex(c.Chapter)
	if err != nil {
		return err
	}
	if err := svc.DeleteNote(user, c.BookID, idx); err != nil {
		return err
	}
	fmt.Printf("✓ Deleted your note on chapter %d\n", c.Chapter)
	return nil
}
