package models

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/julianstephens/chapterly/internal/constants"
)

func TestChapterIndexes_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ChapterIndexes
	}{
		{name: "legacy count", input: `3`, want: ChapterIndexes{0, 1, 2}},
		{name: "legacy zero", input: `0`, want: ChapterIndexes{}},
		{name: "list", input: `[0, 2, 5]`, want: ChapterIndexes{0, 2, 5}},
		{name: "unsorted list with duplicates", input: `[4, 1, 4, 0]`, want: ChapterIndexes{0, 1, 4}},
		{name: "empty list", input: `[]`, want: ChapterIndexes{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ChapterIndexes
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChapterIndexes_UnmarshalJSONRejectsGarbage(t *testing.T) {
	var got ChapterIndexes
	if err := json.Unmarshal([]byte(`"three"`), &got); err == nil {
		t.Error("expected error for string input")
	}
}

func TestChapterIndexes_WithWithout(t *testing.T) {
	base := ChapterIndexes{0, 3}

	added := base.With(1)
	if !reflect.DeepEqual(added, ChapterIndexes{0, 1, 3}) {
		t.Errorf("With(1) = %v", added)
	}
	if !reflect.DeepEqual(base, ChapterIndexes{0, 3}) {
		t.Errorf("With mutated the receiver: %v", base)
	}
	if again := added.With(1); len(again) != 3 {
		t.Errorf("With on existing index changed length: %v", again)
	}

	removed := added.Without(3)
	if !reflect.DeepEqual(removed, ChapterIndexes{0, 1}) {
		t.Errorf("Without(3) = %v", removed)
	}
	if removed.Contains(3) {
		t.Error("Contains(3) after Without(3)")
	}
}

func TestBook_Validate(t *testing.T) {
	tests := []struct {
		name    string
		book    Book
		wantErr bool
	}{
		{name: "valid", book: Book{Title: "Go in Action", Pages: 300, TotalChapters: 3, CompletedChapters: ChapterIndexes{0, 2}}},
		{name: "blank title", book: Book{Title: "   "}, wantErr: true},
		{name: "negative pages", book: Book{Title: "x", Pages: -1}, wantErr: true},
		{name: "completed out of range", book: Book{Title: "x", TotalChapters: 2, CompletedChapters: ChapterIndexes{2}}, wantErr: true},
		{name: "negative completed", book: Book{Title: "x", TotalChapters: 2, CompletedChapters: ChapterIndexes{-1}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.book.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBook_AllChaptersFlattensParts(t *testing.T) {
	b := Book{
		Chapters: []string{"ignored"},
		Parts: []Part{
			{Name: "Part I", Chapters: []string{"a", "b"}},
			{Name: "Part II", Chapters: []string{"c"}},
		},
	}
	if got := b.AllChapters(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("AllChapters() = %v", got)
	}
	if got := b.ChapterTitle(2); got != "c" {
		t.Errorf("ChapterTitle(2) = %q", got)
	}
	if got := b.ChapterTitle(7); got != "Chapter 8" {
		t.Errorf("ChapterTitle(7) = %q", got)
	}
}

func TestBook_Shelf(t *testing.T) {
	if (Book{}).Shelf() != constants.ShelfReading {
		t.Error("expected reading shelf")
	}
	if (Book{IsCompleted: true}).Shelf() != constants.ShelfCompleted {
		t.Error("expected completed shelf")
	}
}

func TestPlan_EndDate(t *testing.T) {
	if got := (Plan{TargetDate: "2025-02-01"}).EndDate(); got != "2025-02-01" {
		t.Errorf("EndDate() = %q", got)
	}
	if got := (Plan{ExpectedEnd: "2025-03-01"}).EndDate(); got != "2025-03-01" {
		t.Errorf("EndDate() = %q", got)
	}
	if (Plan{DailyChapters: 2}).IsPlanned() {
		t.Error("plan without end date should not count as planned")
	}
}

func TestPlan_UnmarshalLegacyStrings(t *testing.T) {
	var p Plan
	data := `{"targetDate":"2024-08-31","dailyChapters":"1","dailyPages":"","expectedEnd":"2024-08-31","autoDaily":null}`
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if p.DailyChapters != 1 || p.DailyPages != 0 || p.AutoDaily != nil || p.TargetDate != "2024-08-31" {
		t.Errorf("unexpected plan: %+v", p)
	}

	if err := json.Unmarshal([]byte(`{"dailyPages":"lots"}`), &p); err == nil {
		t.Error("expected error for non-numeric quota")
	}
}

func TestBook_UnmarshalLegacyRecord(t *testing.T) {
	data := `{
		"title": "리팩터링 2판",
		"author": "마틴 파울러",
		"progress": 10,
		"completedChapters": 2,
		"pages": "550",
		"chapters": ["CHAPTER 01", "CHAPTER 02", "CHAPTER 03"],
		"plan": {"targetDate": "2024-08-31", "dailyChapters": "1", "dailyPages": ""}
	}`
	var b Book
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if b.Pages != 550 {
		t.Errorf("Pages = %d, want 550", b.Pages)
	}
	if b.TotalChapters != 3 {
		t.Errorf("TotalChapters = %d, want 3 (derived from chapters)", b.TotalChapters)
	}
	if !reflect.DeepEqual(b.CompletedChapters, ChapterIndexes{0, 1}) {
		t.Errorf("CompletedChapters = %v", b.CompletedChapters)
	}
	if b.Plan == nil || b.Plan.DailyChapters != 1 {
		t.Errorf("Plan = %+v", b.Plan)
	}
}

func TestBook_MarshalRoundTripKeepsShape(t *testing.T) {
	in := Book{Title: "Go", Pages: 10, Chapters: []string{"a"}, TotalChapters: 1, CompletedChapters: ChapterIndexes{0}, Progress: 100}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var out Book
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip changed book:\n in=%+v\nout=%+v", in, out)
	}
}

func TestBook_MarkChapter(t *testing.T) {
	b := Book{Title: "Go", Chapters: []string{"a", "b", "c", "d"}}

	b = b.MarkChapter(1, true)
	b = b.MarkChapter(1, true)
	if b.Progress != 25 || len(b.CompletedChapters) != 1 {
		t.Errorf("after marking twice: progress=%v completed=%v", b.Progress, b.CompletedChapters)
	}

	b = b.MarkChapter(3, true).MarkChapter(1, false)
	if b.Progress != 25 || !b.CompletedChapters.Contains(3) {
		t.Errorf("after undo: progress=%v completed=%v", b.Progress, b.CompletedChapters)
	}

	empty := Book{Title: "Empty"}.MarkChapter(0, true)
	if empty.Progress != 0 {
		t.Errorf("book without chapters progress = %v, want 0", empty.Progress)
	}
}
