// Package stats derives the reading calendar, the daily streak and the
// weekly/monthly goal figures from personal notes.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/julianstephens/chapterly/internal/constants"
	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/utils"
)

// Record is one note shown on the calendar.
type Record struct {
	Date         string `json:"date"` // YYYY-MM-DD in the configured timezone
	BookTitle    string `json:"bookTitle"`
	ChapterTitle string `json:"chapterTitle"`
}

// Goal is progress toward a period target.
type Goal struct {
	Completed int `json:"completed"`
	Target    int `json:"target"`
	Percent   int `json:"percent"`
}

func newGoal(completed, target int) Goal {
	g := Goal{Completed: completed, Target: target}
	if target > 0 {
		g.Percent = int(math.Round(float64(completed) / float64(target) * 100))
	}
	return g
}

// Summary is everything the stats screen shows.
type Summary struct {
	Streak         int                 `json:"streak"`
	Weekly         Goal                `json:"weekly"`
	Monthly        Goal                `json:"monthly"`
	Records        map[string][]Record `json:"records"`
	TotalNotes     int                 `json:"totalNotes"`
	BooksReading   int                 `json:"booksReading"`
	BooksCompleted int                 `json:"booksCompleted"`
}

// Options controls calendar arithmetic.
type Options struct {
	Location         *time.Location
	WeekStartsMonday bool
}

func (o Options) loc() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// noteTime is when a note was last touched, in loc. ok is false for notes
// with no readable timestamp.
func noteTime(n models.ChapterNote, loc *time.Location) (time.Time, bool) {
	t, err := utils.ParseTimestamp(n.LastTouched())
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}

// RecordsByDate groups notes by the local date they were last touched.
func RecordsByDate(notes []models.ChapterNote, opts Options) map[string][]Record {
	out := make(map[string][]Record)
	for _, n := range notes {
		t, ok := noteTime(n, opts.loc())
		if !ok {
			continue
		}
		date := utils.FormatDate(t)
		title := n.ChapterTitle
		if title == "" {
			title = models.Book{}.ChapterTitle(n.ChapterIndex)
		}
		out[date] = append(out[date], Record{Date: date, BookTitle: n.BookTitle, ChapterTitle: title})
	}
	return out
}

// Streak counts consecutive days with at least one record, walking back from
// today. A today without records does not break the streak.
func Streak(records map[string][]Record, today time.Time) int {
	streak := 0
	day := today
	todayStr := utils.FormatDate(today)
	for i := 0; i < constants.StreakLookbackDays; i++ {
		date := utils.FormatDate(day)
		if len(records[date]) > 0 {
			streak++
		} else if date != todayStr {
			break
		}
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// WeekStart is midnight of the first day of today's week in today's location.
func WeekStart(today time.Time, mondayFirst bool) time.Time {
	y, m, d := today.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	offset := int(midnight.Weekday())
	if mondayFirst {
		offset = (offset + 6) % 7
	}
	return midnight.AddDate(0, 0, -offset)
}

// MonthStart is midnight of the first of today's month in today's location.
func MonthStart(today time.Time) time.Time {
	y, m, _ := today.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, today.Location())
}

func countBetween(notes []models.ChapterNote, loc *time.Location, from, to time.Time) int {
	n := 0
	for _, note := range notes {
		t, ok := noteTime(note, loc)
		if ok && !t.Before(from) && t.Before(to) {
			n++
		}
	}
	return n
}

// Weekly counts notes touched this week against max(7, books×7).
func Weekly(notes []models.ChapterNote, books []models.Book, now time.Time, opts Options) Goal {
	today := now.In(opts.loc())
	start := WeekStart(today, opts.WeekStartsMonday)
	target := len(books) * constants.WeeklyTargetPerBook
	if target < constants.MinWeeklyTarget {
		target = constants.MinWeeklyTarget
	}
	return newGoal(countBetween(notes, opts.loc(), start, start.AddDate(0, 0, 7)), target)
}

// Monthly counts notes touched this month against max(30, total chapters).
func Monthly(notes []models.ChapterNote, books []models.Book, now time.Time, opts Options) Goal {
	today := now.In(opts.loc())
	start := MonthStart(today)
	target := 0
	for _, b := range books {
		target += b.ChapterCount()
	}
	if target < constants.MinMonthlyTarget {
		target = constants.MinMonthlyTarget
	}
	return newGoal(countBetween(notes, opts.loc(), start, start.AddDate(0, 1, 0)), target)
}

// Compute builds the full summary as of now.
func Compute(books []models.Book, notes []models.ChapterNote, now time.Time, opts Options) Summary {
	records := RecordsByDate(notes, opts)
	s := Summary{
		Streak:     Streak(records, now.In(opts.loc())),
		Weekly:     Weekly(notes, books, now, opts),
		Monthly:    Monthly(notes, books, now, opts),
		Records:    records,
		TotalNotes: len(notes),
	}
	for _, b := range books {
		if b.IsCompleted {
			s.BooksCompleted++
		} else {
			s.BooksReading++
		}
	}
	return s
}

// Dates returns the record dates, newest first.
func (s Summary) Dates() []string {
	out := make([]string, 0, len(s.Records))
	for d := range s.Records {
		out = append(out, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}
