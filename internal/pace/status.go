package pace

import (
	"time"

	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/utils"
)

// Progress compares a plan against what has actually been read.
type Progress struct {
	Planned   bool
	Expected  int // chapters that should be done by today
	Completed int
	DaysLeft  int
}

// OnTrack reports whether the reader has kept up with the plan.
func (p Progress) OnTrack() bool {
	return p.Completed >= p.Expected
}

// Behind is the number of chapters the reader needs to catch up on.
func (p Progress) Behind() int {
	if p.OnTrack() {
		return 0
	}
	return p.Expected - p.Completed
}

// Status measures progress linearly between the day the plan was made and its
// end date, starting from the plan's baseline.
func Status(plan models.Plan, totalChapters, completed int, today time.Time) Progress {
	pr := Progress{Completed: completed}
	end, err := utils.ParseDate(plan.EndDate())
	if err != nil {
		return pr
	}
	start, err := utils.ParseDate(plan.PlannedOn)
	if err != nil {
		start = utils.StartOfDay(today)
	}
	pr.Planned = true
	pr.DaysLeft = utils.DaysBetween(today, end)
	if pr.DaysLeft < 0 {
		pr.DaysLeft = 0
	}

	base := plan.Baseline
	if base < 0 || base > totalChapters {
		base = 0
	}
	span := utils.DaysBetween(start, end)
	elapsed := utils.DaysBetween(start, today)
	switch {
	case elapsed <= 0:
		pr.Expected = base
	case span <= 0 || elapsed >= span:
		pr.Expected = totalChapters
	default:
		pr.Expected = base + ceilDiv((totalChapters-base)*elapsed, span)
	}
	return pr
}
