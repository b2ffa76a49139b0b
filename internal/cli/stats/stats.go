package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/notes"
	"github.com/julianstephens/chapterly/internal/stats"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

type StatsCmd struct {
	Days int `short:"d" default:"14" help:"Show reading records for this many recent days."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	lib, err := ctx.Library()
	if err != nil {
		return err
	}
	svc, err := ctx.Notes()
	if err != nil {
		return err
	}
	books, err := lib.Books("")
	if err != nil {
		return err
	}
	all, err := svc.History(notes.Filter{})
	if err != nil {
		return err
	}
	settings := ctx.Settings()
	sum := stats.Compute(books, all, time.Now(), stats.Options{
		Location:         ctx.Location(),
		WeekStartsMonday: settings.WeekStartsMonday,
	})

	fmt.Println(headerStyle.Render("Reading stats"))
	fmt.Printf("  Streak:     %d day(s)\n", sum.Streak)
	fmt.Printf("  This week:  %s %d/%d (%d%%)\n", bar(sum.Weekly.Percent), sum.Weekly.Completed, sum.Weekly.Target, sum.Weekly.Percent)
	fmt.Printf("  This month: %s %d/%d (%d%%)\n", bar(sum.Monthly.Percent), sum.Monthly.Completed, sum.Monthly.Target, sum.Monthly.Percent)
	fmt.Printf("  Books:      %d reading, %d completed\n", sum.BooksReading, sum.BooksCompleted)
	fmt.Printf("  Notes:      %d\n", sum.TotalNotes)

	dates := sum.Dates()
	if len(dates) == 0 || c.Days <= 0 {
		return nil
	}
	fmt.Println()
	fmt.Println(headerStyle.Render("Recent days"))
	cutoff := time.Now().In(ctx.Location()).AddDate(0, 0, -c.Days).Format("2006-01-02")
	for _, d := range dates {
		if d <= cutoff {
			break
		}
		recs := sum.Records[d]
		fmt.Printf("  %s  %d note(s)\n", d, len(recs))
		for _, r := range recs {
			fmt.Printf("      %s: %s\n", r.BookTitle, r.ChapterTitle)
		}
	}
	return nil
}

func bar(percent int) string {
	const width = 20
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return barStyle.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
}
