package books

import (
	"errors"
	"fmt"

	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/constants"
	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/pace"
	"github.com/julianstephens/chapterly/internal/tui/forms"
)

type PlanSetCmd struct {
	Title         string `arg:"" help:"Book title."`
	TargetDate    string `name:"target-date" help:"Finish by this date (YYYY-MM-DD)." xor:"driver"`
	DailyChapters string `name:"daily-chapters" help:"Read this many chapters a day." xor:"driver"`
	DailyPages    string `name:"daily-pages" help:"Read this many pages a day." xor:"driver"`
	FromHere      bool   `name:"from-here" help:"Plan only the chapters not read yet."`
	Interactive   bool   `short:"i" help:"Pick the plan with an interactive form."`
}

func (c *PlanSetCmd) edit() (pace.Edit, error) {
	switch {
	case c.TargetDate != "":
		return pace.Edit{Mode: constants.PlanModeDate, Value: c.TargetDate}, nil
	case c.DailyChapters != "":
		return pace.Edit{Mode: constants.PlanModeChapter, Value: c.DailyChapters}, nil
	case c.DailyPages != "":
		return pace.Edit{Mode: constants.PlanModePage, Value: c.DailyPages}, nil
	case c.Interactive:
		fm := &forms.PlanForm{Mode: constants.PlanModeDate}
		if err := forms.NewPlanForm(fm).Run(); err != nil {
			return pace.Edit{}, err
		}
		return pace.Edit{Mode: fm.Mode, Value: fm.Value}, nil
	}
	return pace.Edit{}, errors.New("give one of --target-date, --daily-chapters or --daily-pages")
}

func (c *PlanSetCmd) Run(ctx *cli.Context) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}
	edit, err := c.edit()
	if err != nil {
		return err
	}
	b, err := lib.SetPlan(c.Title, edit, c.FromHere)
	if err != nil {
		return lib.WithSuggestion(c.Title, err)
	}
	_, status, err := lib.PlanStatus(b.Title)
	if err != nil {
		return err
	}
	printPlan(b, status)
	return nil
}

type PlanShowCmd struct {
	Title string `arg:"" help:"Book title."`
}

func (c *PlanShowCmd) Run(ctx *cli.Context) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}
	b, status, err := lib.PlanStatus(c.Title)
	if err != nil {
		return lib.WithSuggestion(c.Title, err)
	}
	fmt.Println(b.Title)
	printPlan(b, status)
	return nil
}

type PlanClearCmd struct {
	Title string `arg:"" help:"Book title."`
}

func (c *PlanClearCmd) Run(ctx *cli.Context) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}
	if _, err := lib.ClearPlan(c.Title); err != nil {
		return lib.WithSuggestion(c.Title, err)
	}
	fmt.Printf("✓ Cleared the plan for %q\n", c.Title)
	return nil
}

func printPlan(b models.Book, status pace.Progress) {
	p := b.Plan
	if p == nil || !p.IsPlanned() {
		fmt.Println("  Plan:      not yet planned")
		return
	}
	switch p.Mode {
	case constants.PlanModeDate:
		fmt.Printf("  Plan:      finish by %s\n", p.TargetDate)
		if p.AutoDaily != nil {
			fmt.Printf("  Daily:     %d chapter(s)", p.AutoDaily.Chapters)
			if p.AutoDaily.Pages > 0 {
				fmt.Printf(", %d page(s)", p.AutoDaily.Pages)
			}
			fmt.Println()
		}
	case constants.PlanModeChapter:
		fmt.Printf("  Plan:      %d chapter(s) a day, done by %s\n", p.DailyChapters, p.ExpectedEnd)
	case constants.PlanModePage:
		fmt.Printf("  Plan:      %d page(s) a day, done by %s\n", p.DailyPages, p.ExpectedEnd)
	}
	if p.Baseline > 0 {
		fmt.Printf("  From:      chapter %d\n", p.Baseline+1)
	}
	if !status.Planned {
		return
	}
	if status.OnTrack() {
		fmt.Printf("  Status:    on track (%d expected, %d read, %d day(s) left)\n", status.Expected, status.Completed, status.DaysLeft)
	} else {
		fmt.Printf("  Status:    %d chapter(s) behind (%d expected, %d read, %d day(s) left)\n", status.Behind(), status.Expected, status.Completed, status.DaysLeft)
	}
}
