package shared

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/shared"
)

type BoardPostCmd struct {
	BookID  string `arg:"" name:"book-id" help:"Shared book ID."`
	Title   string `arg:"" help:"Post title."`
	Content string `help:"Post text."`
	File    string `short:"f" help:"Read the post from a file ('-' for stdin)."`
	Chapter *int   `help:"Chapter the post is about."`
	Page    *int   `help:"Page the post is about."`
}

func (c *BoardPostCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Shared()
	if err != nil {
		return err
	}
	user, err := ctx.User()
	if err != nil {
		return err
	}
	content, err := cli.ReadText(c.Content, c.File)
	if err != nil {
		return err
	}
	post, err := svc.Post(user, c.BookID, shared.NewPost{
		Title:         c.Title,
		Content:       content,
		ChapterNumber: c.Chapter,
		PageNumber:    c.Page,
	})
	if err != nil {
		return err
	}
	fmt.Printf("✓ Posted %q (%s)\n", post.Title, post.ID)
	return nil
}

type BoardListCmd struct {
	BookID string `arg:"" name:"book-id" help:"Shared book ID."`
}

func (c *BoardListCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Shared()
	if err != nil {
		return err
	}
	user, err := ctx.User()
	if err != nil {
		return err
	}
	posts, err := svc.Posts(user, c.BookID)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Println("No posts yet.")
		return nil
	}
	for _, p := range posts {
		fmt.Printf("%s  %s\n", p.ID, p.Title)
		fmt.Printf("    by %s, %s", p.Author.Name(), humanize.Time(p.CreatedAt))
		if p.ChapterNumber != nil {
			fmt.Printf(", chapter %d", *p.ChapterNumber)
		}
		if p.PageNumber != nil {
			fmt.Printf(", p. %d", *p.PageNumber)
		}
		fmt.Println()
	}
	return nil
}

type BoardCommentCmd struct {
	PostID  string `arg:"" name:"post-id" help:"Post ID."`
	Content string `arg:"" help:"Comment text."`
}

func (c *BoardCommentCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Shared()
	if err != nil {
		return err
	}
	user, err := ctx.User()
	if err != nil {
		return err
	}
	if _, err := svc.Comment(user, c.PostID, c.Content); err != nil {
		return err
	}
	fmt.Println("✓ Comment added")
	return nil
}

type BoardCommentsCmd struct {
	PostID string `arg:"" name:"post-id" help:"Post ID."`
}

func (c *BoardCommentsCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Shared()
	if err != nil {
		return err
	}
	user, err := ctx.User()
	if err != nil {
		return err
	}
	list, err := svc.Comments(user, c.PostID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No comments yet.")
		return nil
	}
	for _, cm := range list {
		fmt.Printf("%s, %s\n  %s\n", cm.Author.Name(), humanize.Time(cm.CreatedAt), cm.Content)
	}
	return nil
}
