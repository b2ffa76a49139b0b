package catalog

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/chapterly/internal/catalog"
	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/logger"
)

type CatalogAddCmd struct {
	Title     string `arg:"" help:"Book title."`
	Author    string `help:"Author."`
	Publisher string `help:"Publisher."`
	ISBN      string `name:"isbn" help:"ISBN. A book with a known ISBN is reused."`
}

func (c *CatalogAddCmd) Run(ctx *cli.Context) error {
	cat, err := ctx.Catalog()
	if err != nil {
		return err
	}
	info, err := cat.FindOrCreateBookInfo(catalog.BookInfoInput{
		ISBN:      c.ISBN,
		Title:     c.Title,
		Author:    c.Author,
		Publisher: c.Publisher,
	})
	if err != nil {
		return err
	}
	fmt.Printf("✓ %s\n", info.Title)
	fmt.Printf("  ID: %s\n", info.ID)
	if info.ISBN != "" {
		fmt.Printf("  ISBN: %s\n", info.ISBN)
	}
	return nil
}

type CatalogFindCmd struct {
	Query string `arg:"" help:"Title, author or ISBN to look for."`
}

func (c *CatalogFindCmd) Run(ctx *cli.Context) error {
	cat, err := ctx.Catalog()
	if err != nil {
		return err
	}
	infos, err := cat.Search(c.Query)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No catalog entries found.")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%s  %s", info.ID, info.Title)
		if info.Author != "" {
			fmt.Printf(" - %s", info.Author)
		}
		fmt.Println()
	}
	return nil
}

type CatalogSetsCmd struct {
	BookInfoID string `arg:"" name:"book-info-id" help:"Catalog book ID."`
	Full       bool   `help:"Print every chapter of each set."`
}

func (c *CatalogSetsCmd) Run(ctx *cli.Context) error {
	cat, err := ctx.Catalog()
	if err != nil {
		return err
	}
	info, err := cat.GetBookInfo(c.BookInfoID)
	if err != nil {
		return err
	}
	sets, err := cat.ListChapterSets(info.ID)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d chapter set(s)\n", info.Title, len(sets))
	for i, s := range sets {
		fmt.Printf("\n%d. %s  (%d vote(s), %d chapters, updated %s)\n",
			i+1, s.ID, s.SelectionCount, len(s.ChapterList), humanize.Time(s.UpdatedAt))
		list := s.ChapterList
		if !c.Full && len(list) > 5 {
			list = list[:5]
		}
		for _, ch := range list {
			fmt.Printf("     %s\n", ch)
		}
		if len(list) < len(s.ChapterList) {
			fmt.Printf("     ... %d more\n", len(s.ChapterList)-len(list))
		}
	}
	return nil
}

type CatalogSubmitCmd struct {
	BookInfoID   string `arg:"" name:"book-info-id" help:"Catalog book ID."`
	Chapters     string `help:"Chapter list, one per line."`
	ChaptersFile string `name:"chapters-file" short:"f" help:"Read the chapter list from a file ('-' for stdin)."`
}

func (c *CatalogSubmitCmd) Run(ctx *cli.Context) error {
	cat, err := ctx.Catalog()
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
	sub, err := cat.SubmitChapterSet(c.BookInfoID, text, user)
	if err != nil {
		return err
	}
	if sub.Created {
		fmt.Printf("✓ Submitted a new chapter set with %d chapters\n", len(sub.Set.ChapterList))
	} else {
		fmt.Printf("✓ Voted for an existing chapter set (%d vote(s))\n", sub.Set.SelectionCount)
	}
	fmt.Printf("  ID: %s\n", sub.Set.ID)
	if sub.Collision {
		logger.Warn("Submitted list differs from the stored set it was merged into", "chapter_set_id", sub.Set.ID)
		fmt.Println("  Warning: the stored list differs from yours; run 'catalog sets --full' to compare")
	}
	return nil
}

type CatalogHistoryCmd struct {
	ChapterSetID string `arg:"" name:"chapter-set-id" help:"Chapter set ID."`
}

func (c *CatalogHistoryCmd) Run(ctx *cli.Context) error {
	cat, err := ctx.Catalog()
	if err != nil {
		return err
	}
	log, err := cat.History(c.ChapterSetID)
	if err != nil {
		return err
	}
	if len(log) == 0 {
		fmt.Println("No selections recorded.")
		return nil
	}
	for _, sel := range log {
		fmt.Printf("  %-24s %s\n", strings.TrimSpace(sel.UserID), humanize.Time(sel.SelectedAt))
	}
	return nil
}
