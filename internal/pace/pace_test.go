package pace

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/julianstephens/chapterly/internal/constants"
	apperrors "github.com/julianstephens/chapterly/internal/errors"
	"github.com/julianstephens/chapterly/internal/utils"
)

var today = time.Date(2025, 3, 10, 21, 45, 0, 0, time.UTC)

func day(offset int) time.Time {
	return utils.StartOfDay(today).AddDate(0, 0, offset)
}

func TestFromTargetDate(t *testing.T) {
	tests := []struct {
		name         string
		totals       Totals
		target       time.Time
		wantChapters int
		wantPages    int
	}{
		{name: "one per day", totals: Totals{Chapters: 12, Pages: 240}, target: day(12), wantChapters: 1, wantPages: 20},
		{name: "rounds up", totals: Totals{Chapters: 10, Pages: 301}, target: day(3), wantChapters: 4, wantPages: 101},
		{name: "target today", totals: Totals{Chapters: 5, Pages: 50}, target: day(0), wantChapters: 5, wantPages: 50},
		{name: "target in the past", totals: Totals{Chapters: 5, Pages: 50}, target: day(-4), wantChapters: 5, wantPages: 50},
		{name: "no pages", totals: Totals{Chapters: 7}, target: day(7), wantChapters: 1, wantPages: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromTargetDate(tt.totals, tt.target, today)
			if p.AutoDaily == nil {
				t.Fatal("AutoDaily not set")
			}
			if p.AutoDaily.Chapters != tt.wantChapters || p.AutoDaily.Pages != tt.wantPages {
				t.Errorf("AutoDaily = %+v, want {%d %d}", *p.AutoDaily, tt.wantChapters, tt.wantPages)
			}
			if p.DailyChapters != 0 || p.DailyPages != 0 || p.ExpectedEnd != "" {
				t.Errorf("other drivers not cleared: %+v", p)
			}
			if p.Mode != constants.PlanModeDate {
				t.Errorf("Mode = %q", p.Mode)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	totals := Totals{Chapters: 12}

	byDate := FromTargetDate(totals, day(12), today)
	if byDate.AutoDaily.Chapters != 1 {
		t.Fatalf("daily chapters = %d, want 1", byDate.AutoDaily.Chapters)
	}

	byQuota := FromDailyChapters(totals, 1, today)
	end, err := utils.ParseDate(byQuota.ExpectedEnd)
	if err != nil {
		t.Fatalf("ExpectedEnd %q: %v", byQuota.ExpectedEnd, err)
	}
	if diff := utils.DaysBetween(day(12), end); diff < -1 || diff > 1 {
		t.Errorf("ExpectedEnd = %s, want %s (±1 day)", byQuota.ExpectedEnd, utils.FormatDate(day(12)))
	}
}

func TestFromDailyQuota(t *testing.T) {
	totals := Totals{Chapters: 10, Pages: 250}

	chapters := FromDailyChapters(totals, 3, today)
	if chapters.ExpectedEnd != "2025-03-14" {
		t.Errorf("chapters ExpectedEnd = %q, want 2025-03-14", chapters.ExpectedEnd)
	}
	if chapters.DailyChapters != 3 || chapters.DailyPages != 0 {
		t.Errorf("unexpected quotas: %+v", chapters)
	}

	pages := FromDailyPages(totals, 100, today)
	if pages.ExpectedEnd != "2025-03-13" {
		t.Errorf("pages ExpectedEnd = %q, want 2025-03-13", pages.ExpectedEnd)
	}
	if pages.DailyPages != 100 || pages.DailyChapters != 0 {
		t.Errorf("unexpected quotas: %+v", pages)
	}
}

func TestZeroQuotaIsUnplanned(t *testing.T) {
	totals := Totals{Chapters: 10, Pages: 100}
	for _, quota := range []int{0, -3} {
		if p := FromDailyChapters(totals, quota, today); p.IsPlanned() || p.DailyChapters != 0 {
			t.Errorf("FromDailyChapters(%d) = %+v, want unplanned", quota, p)
		}
		if p := FromDailyPages(totals, quota, today); p.IsPlanned() || p.DailyPages != 0 {
			t.Errorf("FromDailyPages(%d) = %+v, want unplanned", quota, p)
		}
	}
	if p := FromDailyPages(Totals{Chapters: 3}, 20, today); p.IsPlanned() {
		t.Errorf("book without pages should not get a page-driven end date: %+v", p)
	}
}

func TestSwitchingModeClearsOtherFields(t *testing.T) {
	totals := Totals{Chapters: 12, Pages: 360}

	p := FromTargetDate(totals, day(30), today)
	if p.TargetDate == "" || p.AutoDaily == nil {
		t.Fatalf("date plan missing its fields: %+v", p)
	}

	p = FromDailyPages(totals, 20, today)
	if p.TargetDate != "" || p.AutoDaily != nil || p.DailyChapters != 0 {
		t.Errorf("page plan kept fields from the date plan: %+v", p)
	}

	p = FromDailyChapters(totals, 2, today)
	if p.DailyPages != 0 || p.TargetDate != "" || p.AutoDaily != nil {
		t.Errorf("chapter plan kept fields from the page plan: %+v", p)
	}

	p = FromTargetDate(totals, day(6), today)
	if p.DailyChapters != 0 || p.DailyPages != 0 || p.ExpectedEnd != "" {
		t.Errorf("date plan kept fields from the chapter plan: %+v", p)
	}
}

func TestApply(t *testing.T) {
	totals := Totals{Chapters: 12, Pages: 120}

	p, err := Apply(totals, Edit{Mode: constants.PlanModeDate, Value: " 2025-03-22 "}, today)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if p.AutoDaily == nil || p.AutoDaily.Chapters != 1 || p.AutoDaily.Pages != 10 {
		t.Errorf("unexpected plan: %+v", p)
	}

	p, err = Apply(totals, Edit{Mode: constants.PlanModeChapter, Value: ""}, today)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if p.IsPlanned() {
		t.Errorf("empty quota should be unplanned: %+v", p)
	}

	for _, bad := range []Edit{
		{Mode: constants.PlanModeDate, Value: "03/22/2025"},
		{Mode: constants.PlanModePage, Value: "ten"},
		{Mode: constants.PlanModeChapter, Value: "-1"},
		{Mode: "weekly", Value: "1"},
	} {
		if _, err := Apply(totals, bad, today); !apperrors.IsValidation(err) {
			t.Errorf("Apply(%+v) error = %v, want validation error", bad, err)
		}
	}
}

func TestTotalsRemaining(t *testing.T) {
	tests := []struct {
		name      string
		totals    Totals
		completed int
		want      Totals
	}{
		{name: "nothing read", totals: Totals{Chapters: 10, Pages: 200}, completed: 0, want: Totals{Chapters: 10, Pages: 200}},
		{name: "half", totals: Totals{Chapters: 10, Pages: 200}, completed: 5, want: Totals{Chapters: 5, Pages: 100}},
		{name: "pages round up", totals: Totals{Chapters: 3, Pages: 100}, completed: 1, want: Totals{Chapters: 2, Pages: 67}},
		{name: "all read", totals: Totals{Chapters: 4, Pages: 80}, completed: 4, want: Totals{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.totals.Remaining(tt.completed); got != tt.want {
				t.Errorf("Remaining(%d) = %+v, want %+v", tt.completed, got, tt.want)
			}
		})
	}
}

func TestDailyChaptersCoverTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(1, 500).Draw(t, "total")
		offset := rapid.IntRange(-10, 400).Draw(t, "offset")

		p := FromTargetDate(Totals{Chapters: total}, day(offset), today)
		days := offset
		if days < 1 {
			days = 1
		}
		if p.AutoDaily.Chapters*days < total {
			t.Fatalf("%d/day over %d days does not cover %d chapters", p.AutoDaily.Chapters, days, total)
		}
		if (p.AutoDaily.Chapters-1)*days >= total {
			t.Fatalf("%d/day is more than needed for %d chapters in %d days", p.AutoDaily.Chapters, total, days)
		}
	})
}

func TestQuotaEndDateIsMinimal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(1, 500).Draw(t, "total")
		quota := rapid.IntRange(1, 50).Draw(t, "quota")

		p := FromDailyChapters(Totals{Chapters: total}, quota, today)
		end, err := utils.ParseDate(p.ExpectedEnd)
		if err != nil {
			t.Fatalf("ExpectedEnd %q: %v", p.ExpectedEnd, err)
		}
		days := utils.DaysBetween(today, end)
		if days*quota < total || (days-1)*quota >= total {
			t.Fatalf("%d days at %d/day for %d chapters", days, quota, total)
		}
	})
}
