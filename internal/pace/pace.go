// Package pace derives study plans. A plan is always rebuilt from exactly one
// driver (target date, daily chapters or daily pages); the fields belonging to
// the other two drivers are cleared.
package pace

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/chapterly/internal/constants"
	apperrors "github.com/julianstephens/chapterly/internal/errors"
	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/utils"
)

// Totals is the workload a plan has to cover.
type Totals struct {
	Chapters int
	Pages    int
}

// Remaining scales totals down to what is left after completed chapters.
// Pages are assumed to be spread evenly across chapters.
func (t Totals) Remaining(completed int) Totals {
	if completed <= 0 || t.Chapters <= 0 {
		return t
	}
	left := t.Chapters - completed
	if left <= 0 {
		return Totals{}
	}
	return Totals{
		Chapters: left,
		Pages:    ceilDiv(t.Pages*left, t.Chapters),
	}
}

func ceilDiv(a, b int) int {
	if b <= 0 || a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// FromTargetDate spreads the totals over the days until target. A target on or
// before today is treated as one day away.
func FromTargetDate(t Totals, target, today time.Time) models.Plan {
	days := utils.DaysBetween(today, target)
	if days < 1 {
		days = 1
	}
	return models.Plan{
		Mode:       constants.PlanModeDate,
		TargetDate: utils.FormatDate(utils.StartOfDay(target)),
		AutoDaily: &models.DailyQuota{
			Chapters: ceilDiv(t.Chapters, days),
			Pages:    ceilDiv(t.Pages, days),
		},
		PlannedOn: utils.FormatDate(utils.StartOfDay(today)),
	}
}

// FromDailyChapters projects the end date for a fixed number of chapters per
// day. A quota of zero or less leaves the plan without an end date.
func FromDailyChapters(t Totals, quota int, today time.Time) models.Plan {
	p := models.Plan{
		Mode:      constants.PlanModeChapter,
		PlannedOn: utils.FormatDate(utils.StartOfDay(today)),
	}
	if quota <= 0 {
		return p
	}
	p.DailyChapters = quota
	p.ExpectedEnd = expectedEnd(ceilDiv(t.Chapters, quota), today)
	return p
}

// FromDailyPages projects the end date for a fixed number of pages per day. A
// quota of zero or less leaves the plan without an end date.
func FromDailyPages(t Totals, quota int, today time.Time) models.Plan {
	p := models.Plan{
		Mode:      constants.PlanModePage,
		PlannedOn: utils.FormatDate(utils.StartOfDay(today)),
	}
	if quota <= 0 {
		return p
	}
	p.DailyPages = quota
	p.ExpectedEnd = expectedEnd(ceilDiv(t.Pages, quota), today)
	return p
}

func expectedEnd(days int, today time.Time) string {
	if days <= 0 {
		return ""
	}
	return utils.FormatDate(utils.StartOfDay(today).AddDate(0, 0, days))
}

// Edit is one user edit of a plan: a mode and the raw value typed for it.
type Edit struct {
	Mode  constants.PlanMode
	Value string
}

// Apply rebuilds a plan from an edit. An empty value is not an error; it yields
// an unplanned plan in the chosen mode.
func Apply(t Totals, e Edit, today time.Time) (models.Plan, error) {
	value := strings.TrimSpace(e.Value)
	switch e.Mode {
	case constants.PlanModeDate:
		if value == "" {
			return models.Plan{Mode: e.Mode}, nil
		}
		target, err := utils.ParseDate(value)
		if err != nil {
			return models.Plan{}, apperrors.Invalid("target date", err.Error())
		}
		return FromTargetDate(t, target, today), nil
	case constants.PlanModeChapter, constants.PlanModePage:
		quota := 0
		if value != "" {
			n, err := strconv.Atoi(value)
			if err != nil {
				return models.Plan{}, apperrors.Invalid("daily quota", fmt.Sprintf("%q is not a whole number", value))
			}
			if n < 0 {
				return models.Plan{}, apperrors.Invalid("daily quota", "must not be negative")
			}
			quota = n
		}
		if e.Mode == constants.PlanModeChapter {
			return FromDailyChapters(t, quota, today), nil
		}
		return FromDailyPages(t, quota, today), nil
	default:
		return models.Plan{}, apperrors.Invalid("mode", fmt.Sprintf("unknown plan mode %q", e.Mode))
	}
}
