package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/utils"
)

// IssueType names a kind of problem found in the local library.
type IssueType string

const (
	IssueDuplicateTitle    IssueType = "duplicate_title"
	IssueChapterOutOfRange IssueType = "chapter_out_of_range"
	IssueProgressMismatch  IssueType = "progress_mismatch"
	IssueCompletedFlag     IssueType = "completed_flag"
	IssueInvalidPlan       IssueType = "invalid_plan"
	IssueOrphanNote        IssueType = "orphan_note"
	IssueNoteOutOfRange    IssueType = "note_out_of_range"
)

// Issue is one problem found in the library.
type Issue struct {
	Type        IssueType
	Description string
	Book        string // title of the book involved
	Chapter     int    // 0-based, -1 when not chapter specific
	Fixable     bool   // FixBook repairs it
}

// Result contains all detected issues
type Result struct {
	Issues []Issue
}

// FixAction represents an action taken during auto-fix
type FixAction struct {
	Action string
	Book   string
}

// HasIssues returns true if there are any issues
func (r *Result) HasIssues() bool {
	return len(r.Issues) > 0
}

// Fixable reports how many issues FixBook can repair.
func (r *Result) Fixable() int {
	n := 0
	for _, is := range r.Issues {
		if is.Fixable {
			n++
		}
	}
	return n
}

// FormatReport returns a human-readable report of all issues
func (r *Result) FormatReport() string {
	if !r.HasIssues() {
		return "No issues detected."
	}
	var b strings.Builder
	b.WriteString("Issues detected:\n")
	for _, is := range r.Issues {
		mark := ""
		if is.Fixable {
			mark = " (fixable)"
		}
		fmt.Fprintf(&b, "- %s%s\n", is.Description, mark)
	}
	return b.String()
}

// progressTolerance absorbs float rounding in stored percentages.
const progressTolerance = 0.5

// CheckLibrary inspects personal books and notes for inconsistencies.
func CheckLibrary(books []models.Book, notes []models.ChapterNote) Result {
	res := Result{Issues: []Issue{}}

	byTitle := make(map[string]models.Book, len(books))
	counts := make(map[string]int, len(books))
	for _, b := range books {
		counts[b.Title]++
		byTitle[b.Title] = b
	}
	titles := make([]string, 0, len(counts))
	for t, n := range counts {
		if n > 1 {
			titles = append(titles, t)
		}
	}
	sort.Strings(titles)
	for _, t := range titles {
		res.Issues = append(res.Issues, Issue{
			Type:        IssueDuplicateTitle,
			Description: fmt.Sprintf("Duplicate book title: %q appears %d times", t, counts[t]),
			Book:        t,
			Chapter:     -1,
		})
	}

	for _, b := range books {
		res.Issues = append(res.Issues, checkBook(b)...)
	}

	for _, n := range notes {
		b, ok := byTitle[n.BookTitle]
		if !ok {
			res.Issues = append(res.Issues, Issue{
				Type:        IssueOrphanNote,
				Description: fmt.Sprintf("Note for chapter %d refers to missing book %q", n.ChapterIndex+1, n.BookTitle),
				Book:        n.BookTitle,
				Chapter:     n.ChapterIndex,
			})
			continue
		}
		if total := b.ChapterCount(); total > 0 && n.ChapterIndex >= total {
			res.Issues = append(res.Issues, Issue{
				Type:        IssueNoteOutOfRange,
				Description: fmt.Sprintf("Note on %q is for chapter %d but the book has %d", b.Title, n.ChapterIndex+1, total),
				Book:        b.Title,
				Chapter:     n.ChapterIndex,
			})
		}
	}
	return res
}

func checkBook(b models.Book) []Issue {
	var issues []Issue
	total := b.ChapterCount()
	for _, idx := range b.CompletedChapters {
		if idx < 0 || (total > 0 && idx >= total) {
			issues = append(issues, Issue{
				Type:        IssueChapterOutOfRange,
				Description: fmt.Sprintf("%q marks chapter %d done but has %d chapters", b.Title, idx+1, total),
				Book:        b.Title,
				Chapter:     idx,
				Fixable:     true,
			})
		}
	}

	if total > 0 {
		want := float64(len(inRange(b.CompletedChapters, total))) / float64(total) * 100
		if diff := b.Progress - want; diff > progressTolerance || diff < -progressTolerance {
			issues = append(issues, Issue{
				Type:        IssueProgressMismatch,
				Description: fmt.Sprintf("%q shows %.0f%% but %d of %d chapters are done", b.Title, b.Progress, len(b.CompletedChapters), total),
				Book:        b.Title,
				Chapter:     -1,
				Fixable:     true,
			})
		}
		if !b.IsCompleted && len(inRange(b.CompletedChapters, total)) == total {
			issues = append(issues, Issue{
				Type:        IssueCompletedFlag,
				Description: fmt.Sprintf("%q has every chapter done but is still on the reading shelf", b.Title),
				Book:        b.Title,
				Chapter:     -1,
			})
		}
	}

	if p := b.Plan; p != nil {
		fields := []struct{ name, value string }{
			{"target date", p.TargetDate},
			{"expected end", p.ExpectedEnd},
			{"planned on", p.PlannedOn},
		}
		for _, f := range fields {
			name, v := f.name, f.value
			if v == "" {
				continue
			}
			if _, err := utils.ParseDate(v); err != nil {
				issues = append(issues, Issue{
					Type:        IssueInvalidPlan,
					Description: fmt.Sprintf("%q has an invalid plan %s: %s", b.Title, name, v),
					Book:        b.Title,
					Chapter:     -1,
				})
			}
		}
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Type < issues[j].Type })
	return issues
}

func inRange(idx models.ChapterIndexes, total int) models.ChapterIndexes {
	out := make(models.ChapterIndexes, 0, len(idx))
	for _, i := range idx {
		if i >= 0 && i < total {
			out = append(out, i)
		}
	}
	return out
}

// FixBook drops out-of-range chapter marks and recomputes progress. It
// reports what changed; an empty slice means b was already consistent.
func FixBook(b models.Book) (models.Book, []FixAction) {
	var actions []FixAction
	total := b.ChapterCount()
	if total == 0 {
		return b, nil
	}
	kept := inRange(b.CompletedChapters, total)
	if dropped := len(b.CompletedChapters) - len(kept); dropped > 0 {
		actions = append(actions, FixAction{
			Action: fmt.Sprintf("Removed %d out-of-range chapter mark(s) from %q", dropped, b.Title),
			Book:   b.Title,
		})
		b.CompletedChapters = kept
	}
	want := float64(len(kept)) / float64(total) * 100
	if diff := b.Progress - want; diff > progressTolerance || diff < -progressTolerance {
		actions = append(actions, FixAction{
			Action: fmt.Sprintf("Reset progress of %q from %.0f%% to %.0f%%", b.Title, b.Progress, want),
			Book:   b.Title,
		})
		b.Progress = want
	}
	return b, actions
}
