package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/chapterly/internal/constants"
)

// Part groups chapters under a heading ("Part I", "2부" ...).
type Part struct {
	Name     string   `json:"name"`
	Chapters []string `json:"chapters"`
}

// DailyQuota is the per-day workload derived from a target date.
type DailyQuota struct {
	Chapters int `json:"chapters"`
	Pages    int `json:"pages"`
}

// Plan is a study schedule. Exactly one of TargetDate, DailyChapters and
// DailyPages is the driver (see Mode); the remaining fields are derived from it.
type Plan struct {
	Mode          constants.PlanMode `json:"mode,omitempty"`
	TargetDate    string             `json:"targetDate,omitempty"`  // YYYY-MM-DD
	DailyChapters int                `json:"dailyChapters,omitempty"`
	DailyPages    int                `json:"dailyPages,omitempty"`
	ExpectedEnd   string             `json:"expectedEnd,omitempty"` // YYYY-MM-DD
	AutoDaily     *DailyQuota        `json:"autoDaily,omitempty"`
	PlannedOn     string             `json:"plannedOn,omitempty"` // YYYY-MM-DD
	// Baseline is the number of chapters already done when a plan was made
	// for the remainder of a book.
	Baseline int `json:"baseline,omitempty"`
}

// EndDate is the completion date shown to the user.
func (p Plan) EndDate() string {
	if p.ExpectedEnd != "" {
		return p.ExpectedEnd
	}
	return p.TargetDate
}

// IsPlanned reports whether the plan has a computed schedule.
func (p Plan) IsPlanned() bool {
	return p.EndDate() != ""
}

// ChapterIndexes is the set of completed 0-based chapter indexes, kept sorted.
//
// Older exports stored a bare count instead of a list; a count n is read as
// chapters 0..n-1.
type ChapterIndexes []int

func (c *ChapterIndexes) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		idx := make(ChapterIndexes, 0, n)
		for i := 0; i < n; i++ {
			idx = append(idx, i)
		}
		*c = idx
		return nil
	}
	var list []int
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*c = ChapterIndexes(list).normalized()
	return nil
}

func (c ChapterIndexes) normalized() ChapterIndexes {
	seen := make(map[int]bool, len(c))
	out := make(ChapterIndexes, 0, len(c))
	for _, i := range c {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// Contains reports whether chapter i is completed.
func (c ChapterIndexes) Contains(i int) bool {
	for _, v := range c {
		if v == i {
			return true
		}
	}
	return false
}

// With returns the set with i added.
func (c ChapterIndexes) With(i int) ChapterIndexes {
	if c.Contains(i) {
		return c
	}
	return append(append(ChapterIndexes{}, c...), i).normalized()
}

// Without returns the set with i removed.
func (c ChapterIndexes) Without(i int) ChapterIndexes {
	out := make(ChapterIndexes, 0, len(c))
	for _, v := range c {
		if v != i {
			out = append(out, v)
		}
	}
	return out
}

// Book is a personal book on the dashboard. Books are keyed by title.
type Book struct {
	Title             string         `json:"title"`
	Author            string         `json:"author,omitempty"`
	Publisher         string         `json:"publisher,omitempty"`
	ISBN              string         `json:"isbn,omitempty"`
	Cover             string         `json:"cover,omitempty"`
	Pages             int            `json:"pages"`
	Chapters          []string       `json:"chapters"`
	Parts             []Part         `json:"parts,omitempty"`
	TotalChapters     int            `json:"totalChapters"`
	CompletedChapters ChapterIndexes `json:"completedChapters"`
	Progress          float64        `json:"progress"`
	IsCompleted       bool           `json:"isCompleted"`
	Plan              *Plan          `json:"plan,omitempty"`
	BookInfoID        string         `json:"bookInfoId,omitempty"`
	CreatedAt         string         `json:"createdAt,omitempty"`
}

// Shelf reports which list the book shows up in.
func (b Book) Shelf() constants.ShelfKind {
	if b.IsCompleted {
		return constants.ShelfCompleted
	}
	return constants.ShelfReading
}

// ChapterTitle returns the display title of chapter i (0-based).
func (b Book) ChapterTitle(i int) string {
	all := b.AllChapters()
	if i >= 0 && i < len(all) {
		return all[i]
	}
	return fmt.Sprintf("Chapter %d", i+1)
}

// AllChapters flattens parts into a single chapter list when parts are present.
func (b Book) AllChapters() []string {
	if len(b.Parts) == 0 {
		return b.Chapters
	}
	var out []string
	for _, p := range b.Parts {
		out = append(out, p.Chapters...)
	}
	return out
}

// ChapterCount is TotalChapters, or the length of the chapter list for
// records that never stored a total.
func (b Book) ChapterCount() int {
	if b.TotalChapters > 0 {
		return b.TotalChapters
	}
	return len(b.AllChapters())
}

// MarkChapter returns a copy of b with chapter i (0-based) marked done or not,
// and Progress recomputed as a percentage of ChapterCount.
func (b Book) MarkChapter(i int, done bool) Book {
	if done {
		b.CompletedChapters = b.CompletedChapters.With(i)
	} else {
		b.CompletedChapters = b.CompletedChapters.Without(i)
	}
	b.Progress = 0
	if n := b.ChapterCount(); n > 0 {
		b.Progress = float64(len(b.CompletedChapters)) / float64(n) * 100
	}
	return b
}

func (b Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if b.Pages < 0 {
		return fmt.Errorf("pages must not be negative")
	}
	for _, idx := range b.CompletedChapters {
		if idx < 0 || (b.TotalChapters > 0 && idx >= b.TotalChapters) {
			return fmt.Errorf("completed chapter %d is out of range (book has %d chapters)", idx+1, b.TotalChapters)
		}
	}
	return nil
}

// WishlistBook is a book the user intends to read.
type WishlistBook struct {
	Title   string `json:"title"`
	Author  string `json:"author,omitempty"`
	ISBN    string `json:"isbn,omitempty"`
	Cover   string `json:"cover,omitempty"`
	AddedAt string `json:"addedAt,omitempty"`
}
