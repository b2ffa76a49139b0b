package system

import (
	"fmt"

	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/validation"
)

type ValidateCmd struct {
	Fix bool `help:"Repair issues that can be fixed automatically."`
}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	if err := ctx.LoadLocal(); err != nil {
		return err
	}
	books, err := ctx.Local.Books()
	if err != nil {
		return err
	}
	notes, err := ctx.Local.Notes()
	if err != nil {
		return err
	}

	res := validation.CheckLibrary(books, notes)
	fmt.Print(res.FormatReport())
	if !res.HasIssues() {
		fmt.Println()
		return nil
	}

	if !c.Fix {
		if n := res.Fixable(); n > 0 {
			fmt.Printf("\n%d issue(s) can be repaired with --fix.\n", n)
		}
		return fmt.Errorf("library has %d issue(s)", len(res.Issues))
	}

	var fixed int
	for _, b := range books {
		repaired, actions := validation.FixBook(b)
		if len(actions) == 0 {
			continue
		}
		if err := ctx.Local.UpdateBook(repaired); err != nil {
			return fmt.Errorf("failed to save %q: %w", b.Title, err)
		}
		for _, a := range actions {
			fmt.Printf("✓ %s\n", a.Action)
		}
		fixed += len(actions)
	}
	fmt.Printf("\nApplied %d fix(es).\n", fixed)

	notes, _ = ctx.Local.Notes()
	books, _ = ctx.Local.Books()
	if remaining := validation.CheckLibrary(books, notes); remaining.HasIssues() {
		return fmt.Errorf("%d issue(s) need manual attention", len(remaining.Issues))
	}
	return nil
}
