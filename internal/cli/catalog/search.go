package catalog

import (
	"context"
	"fmt"

	"github.com/julianstephens/chapterly/internal/booksearch"
	"github.com/julianstephens/chapterly/internal/catalog"
	"github.com/julianstephens/chapterly/internal/cli"
)

type SearchCmd struct {
	Query string `arg:"" help:"Title to search for."`
	Add   int    `help:"Store result N (from 1) in the catalog."`
}

func (c *SearchCmd) Run(ctx *cli.Context) error {
	key, err := booksearch.ResolveKey()
	if err != nil {
		return err
	}
	items, err := booksearch.New(key).Search(context.Background(), c.Query)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No books found.")
		return nil
	}
	for i, it := range items {
		fmt.Printf("%2d. %s\n", i+1, it.Title)
		fmt.Printf("    %s / %s", it.Author, it.Publisher)
		if it.PubDate != "" {
			fmt.Printf(" (%s)", it.PubDate)
		}
		fmt.Println()
		if isbn := it.BestISBN(); isbn != "" {
			fmt.Printf("    ISBN %s\n", isbn)
		}
	}

	if c.Add == 0 {
		return nil
	}
	if c.Add < 1 || c.Add > len(items) {
		return fmt.Errorf("--add must be between 1 and %d", len(items))
	}
	cat, err := ctx.Catalog()
	if err != nil {
		return err
	}
	it := items[c.Add-1]
	info, err := cat.FindOrCreateBookInfo(catalog.BookInfoInput{
		ISBN:      it.BestISBN(),
		Title:     it.Title,
		Author:    it.Author,
		Publisher: it.Publisher,
	})
	if err != nil {
		return err
	}
	fmt.Printf("\n✓ Catalog entry %s for %q\n", info.ID, info.Title)
	return nil
}
