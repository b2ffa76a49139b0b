package books

import (
	"fmt"

	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/models"
)

type WishlistAddCmd struct {
	Title  string `arg:"" help:"Book title."`
	Author string `help:"Author."`
	ISBN   string `name:"isbn" help:"ISBN."`
	Cover  string `help:"Cover image URL."`
}

func (c *WishlistAddCmd) Run(ctx *cli.Context) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}
	w, err := lib.AddWish(models.WishlistBook{Title: c.Title, Author: c.Author, ISBN: c.ISBN, Cover: c.Cover})
	if err != nil {
		return err
	}
	fmt.Printf("✓ Added %q to the wishlist\n", w.Title)
	return nil
}

type WishlistListCmd struct{}

func (c *WishlistListCmd) Run(ctx *cli.Context) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}
	list, err := lib.Wishlist()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("Wishlist is empty.")
		return nil
	}
	for _, w := range list {
		fmt.Printf("  %s", w.Title)
		if w.Author != "" {
			fmt.Printf(" - %s", w.Author)
		}
		if w.ISBN != "" {
			fmt.Printf(" [%s]", w.ISBN)
		}
		fmt.Println()
	}
	return nil
}

type WishlistRemoveCmd struct {
	Title string `arg:"" help:"Book title."`
}

func (c *WishlistRemoveCmd) Run(ctx *cli.Context) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}
	if err := lib.RemoveWish(c.Title); err != nil {
		return err
	}
	fmt.Printf("✓ Removed %q from the wishlist\n", c.Title)
	return nil
}

type WishlistPromoteCmd struct {
	Title        string `arg:"" help:"Book title."`
	Chapters     string `help:"Chapter list, one per line."`
	ChaptersFile string `name:"chapters-file" short:"f" help:"Read the chapter list from a file ('-' for stdin)."`
	Pages        int    `help:"Total pages."`
}

func (c *WishlistPromoteCmd) Run(ctx *cli.Context) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}
	text, err := cli.ReadText(c.Chapters, c.ChaptersFile)
	if err != nil {
		return err
	}
	b, err := lib.Promote(c.Title, text, c.Pages)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Moved %q to the reading shelf with %d chapter(s)\n", b.Title, b.TotalChapters)
	return nil
}
