// Package storagetest runs the same behavioural checks against every
// storage.Provider implementation.
package storagetest

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/storage"
)

// Factory returns an initialized, empty provider. It should register its own cleanup.
type Factory func(t *testing.T) storage.Provider

var base = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

// Run executes every check as a subtest.
func Run(t *testing.T, newStore Factory) {
	t.Run("Settings", func(t *testing.T) { testSettings(t, newStore(t)) })
	t.Run("Profiles", func(t *testing.T) { testProfiles(t, newStore(t)) })
	t.Run("BookInfo", func(t *testing.T) { testBookInfo(t, newStore(t)) })
	t.Run("ChapterSetVoting", func(t *testing.T) { testChapterSetVoting(t, newStore(t)) })
	t.Run("SharedBooks", func(t *testing.T) { testSharedBooks(t, newStore(t)) })
	t.Run("SharedNotes", func(t *testing.T) { testSharedNotes(t, newStore(t)) })
	t.Run("Progress", func(t *testing.T) { testProgress(t, newStore(t)) })
	t.Run("Board", func(t *testing.T) { testBoard(t, newStore(t)) })
}

func testSettings(t *testing.T, s storage.Provider) {
	got, err := s.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings() on fresh store: %v", err)
	}
	if got.Timezone == "" {
		t.Error("fresh store should carry a default timezone")
	}

	want := models.Settings{Timezone: "Asia/Seoul", DefaultUser: "reader-1", WeekStartsMonday: false}
	if err := s.SaveSettings(want); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	got, err = s.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got != want {
		t.Errorf("GetSettings() = %+v, want %+v", got, want)
	}
}

func testProfiles(t *testing.T, s storage.Provider) {
	if _, err := s.GetProfile("nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetProfile(missing) error = %v, want ErrNotFound", err)
	}

	p, err := s.UpsertProfile(models.Profile{UserID: "u1", DisplayName: "Mina"})
	if err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}
	if p.ID == "" || p.DisplayName != "Mina" {
		t.Errorf("unexpected profile: %+v", p)
	}

	updated, err := s.UpsertProfile(models.Profile{UserID: "u1", Email: "mina@example.com"})
	if err != nil {
		t.Fatalf("UpsertProfile() update error = %v", err)
	}
	if updated.ID != p.ID {
		t.Errorf("upsert changed profile id from %s to %s", p.ID, updated.ID)
	}
	if updated.DisplayName != "" || updated.Email != "mina@example.com" {
		t.Errorf("upsert should replace editable fields: %+v", updated)
	}

	if _, err := s.UpsertProfile(models.Profile{UserID: "u2", DisplayName: "Jun"}); err != nil {
		t.Fatalf("UpsertProfile(u2) error = %v", err)
	}
	profiles, err := s.GetProfiles([]string{"u1", "u2", "u3"})
	if err != nil {
		t.Fatalf("GetProfiles() error = %v", err)
	}
	if len(profiles) != 2 || profiles["u2"].DisplayName != "Jun" {
		t.Errorf("GetProfiles() = %+v", profiles)
	}
	if empty, err := s.GetProfiles(nil); err != nil || len(empty) != 0 {
		t.Errorf("GetProfiles(nil) = %v, %v", empty, err)
	}
}

func testBookInfo(t *testing.T, s storage.Provider) {
	withISBN := models.BookInfo{ID: uuid.New().String(), ISBN: "9788966262281", Title: "Effective Java", Author: "Joshua Bloch"}
	noISBN := models.BookInfo{ID: uuid.New().String(), Title: "Notes on Go", Author: "Anon"}
	for _, b := range []models.BookInfo{withISBN, noISBN} {
		if err := s.AddBookInfo(b); err != nil {
			t.Fatalf("AddBookInfo(%s) error = %v", b.Title, err)
		}
	}
	// A second book without an ISBN must not trip the unique index.
	if err := s.AddBookInfo(models.BookInfo{ID: uuid.New().String(), Title: "Untitled"}); err != nil {
		t.Fatalf("AddBookInfo(second without isbn) error = %v", err)
	}

	dup := models.BookInfo{ID: uuid.New().String(), ISBN: "9788966262281", Title: "Effective Java 3/E"}
	if err := s.AddBookInfo(dup); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("AddBookInfo(duplicate isbn) error = %v, want ErrConflict", err)
	}

	got, err := s.GetBookInfoByISBN("9788966262281")
	if err != nil {
		t.Fatalf("GetBookInfoByISBN() error = %v", err)
	}
	if got.ID != withISBN.ID || got.Title != "Effective Java" {
		t.Errorf("GetBookInfoByISBN() = %+v", got)
	}

	got, err = s.GetBookInfo(noISBN.ID)
	if err != nil {
		t.Fatalf("GetBookInfo() error = %v", err)
	}
	if got.ISBN != "" {
		t.Errorf("ISBN = %q, want empty", got.ISBN)
	}

	if _, err := s.GetBookInfo("missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetBookInfo(missing) error = %v, want ErrNotFound", err)
	}

	found, err := s.SearchBookInfo("java")
	if err != nil {
		t.Fatalf("SearchBookInfo() error = %v", err)
	}
	if len(found) != 1 || found[0].ID != withISBN.ID {
		t.Errorf("SearchBookInfo(java) = %+v", found)
	}
}

func testChapterSetVoting(t *testing.T, s storage.Provider) {
	book := models.BookInfo{ID: uuid.New().String(), Title: "Java Basics"}
	if err := s.AddBookInfo(book); err != nil {
		t.Fatalf("AddBookInfo() error = %v", err)
	}

	first := models.ChapterSet{
		BookInfoID:     book.ID,
		NormalizedHash: "5ba6389",
		OriginalInput:  "1장 자바 시작하기\n2장 변수와 타입",
		ChapterList:    []string{"1장 자바 시작하기", "2장 변수와 타입"},
	}
	stored, created, err := s.RecordChapterSetSelection(first, "u1", at(0))
	if err != nil {
		t.Fatalf("RecordChapterSetSelection() error = %v", err)
	}
	if !created || stored.SelectionCount != 1 {
		t.Errorf("first selection: created=%v count=%d", created, stored.SelectionCount)
	}

	second := first
	second.OriginalInput = "1장자바시작하기\n\n2장 변수와타입"
	second.ChapterList = []string{"1장자바시작하기", "2장 변수와타입"}
	again, created, err := s.RecordChapterSetSelection(second, "u2", at(5))
	if err != nil {
		t.Fatalf("RecordChapterSetSelection() second error = %v", err)
	}
	if created {
		t.Error("second selection with the same hash should not create a set")
	}
	if again.ID != stored.ID {
		t.Errorf("second selection landed on set %s, want %s", again.ID, stored.ID)
	}
	if again.SelectionCount != stored.SelectionCount+1 {
		t.Errorf("SelectionCount = %d, want %d", again.SelectionCount, stored.SelectionCount+1)
	}
	if !reflect.DeepEqual(again.ChapterList, first.ChapterList) || again.OriginalInput != first.OriginalInput {
		t.Errorf("vote changed the stored list: %+v", again)
	}

	other := models.ChapterSet{BookInfoID: book.ID, NormalizedHash: "abc", OriginalInput: "x", ChapterList: []string{"x"}}
	if _, _, err := s.RecordChapterSetSelection(other, "u3", at(10)); err != nil {
		t.Fatalf("RecordChapterSetSelection(other) error = %v", err)
	}

	sets, err := s.GetChapterSets(book.ID)
	if err != nil {
		t.Fatalf("GetChapterSets() error = %v", err)
	}
	if len(sets) != 2 || sets[0].ID != stored.ID || sets[0].SelectionCount != 2 || sets[1].SelectionCount != 1 {
		t.Errorf("GetChapterSets() = %+v", sets)
	}

	byHash, err := s.GetChapterSetByHash(book.ID, "5ba6389")
	if err != nil {
		t.Fatalf("GetChapterSetByHash() error = %v", err)
	}
	if byHash.ID != stored.ID {
		t.Errorf("GetChapterSetByHash() = %s, want %s", byHash.ID, stored.ID)
	}
	if _, err := s.GetChapterSetByHash(book.ID, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetChapterSetByHash(missing) error = %v, want ErrNotFound", err)
	}

	log, err := s.GetChapterSetLog(stored.ID)
	if err != nil {
		t.Fatalf("GetChapterSetLog() error = %v", err)
	}
	if len(log) != 2 || log[0].UserID != "u2" || log[1].UserID != "u1" {
		t.Errorf("GetChapterSetLog() = %+v, want newest first", log)
	}
}

func newSharedBook(creator, code string, created time.Time) models.SharedBook {
	return models.SharedBook{
		ID:            uuid.New().String(),
		Title:         "Shared " + code,
		Chapters:      []string{"One", "Two", "Three"},
		Parts:         []models.Part{{Name: "Part I", Chapters: []string{"One", "Two", "Three"}}},
		Pages:         120,
		TotalChapters: 3,
		InviteCode:    code,
		CreatedBy:     creator,
		CreatedAt:     created,
	}
}

func addMember(t *testing.T, s storage.Provider, bookID, userID string, joined time.Time) {
	t.Helper()
	if err := s.AddMember(models.BookMember{ID: uuid.New().String(), BookID: bookID, UserID: userID, JoinedAt: joined}); err != nil {
		t.Fatalf("AddMember(%s) error = %v", userID, err)
	}
}

func testSharedBooks(t *testing.T, s storage.Provider) {
	a := newSharedBook("alice", "AAAA2222", at(0))
	b := newSharedBook("bob", "BBBB3333", at(10))
	for _, book := range []models.SharedBook{a, b} {
		if err := s.AddSharedBook(book); err != nil {
			t.Fatalf("AddSharedBook() error = %v", err)
		}
		addMember(t, s, book.ID, book.CreatedBy, book.CreatedAt)
	}

	dup := newSharedBook("carol", "AAAA2222", at(20))
	if err := s.AddSharedBook(dup); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("AddSharedBook(duplicate code) error = %v, want ErrConflict", err)
	}

	got, err := s.GetSharedBookByInviteCode("BBBB3333")
	if err != nil {
		t.Fatalf("GetSharedBookByInviteCode() error = %v", err)
	}
	if got.ID != b.ID || !reflect.DeepEqual(got.Chapters, b.Chapters) || len(got.Parts) != 1 || got.MemberCount != 1 {
		t.Errorf("GetSharedBookByInviteCode() = %+v", got)
	}
	if _, err := s.GetSharedBookByInviteCode("ZZZZ9999"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetSharedBookByInviteCode(missing) error = %v, want ErrNotFound", err)
	}

	addMember(t, s, b.ID, "alice", at(30))
	err = s.AddMember(models.BookMember{ID: uuid.New().String(), BookID: b.ID, UserID: "alice"})
	if !errors.Is(err, storage.ErrConflict) {
		t.Errorf("AddMember(existing) error = %v, want ErrConflict", err)
	}

	isMember, err := s.IsMember(b.ID, "alice")
	if err != nil || !isMember {
		t.Errorf("IsMember(alice) = %v, %v", isMember, err)
	}
	isMember, err = s.IsMember(a.ID, "bob")
	if err != nil || isMember {
		t.Errorf("IsMember(bob in a) = %v, %v", isMember, err)
	}

	books, err := s.GetSharedBooksForUser("alice")
	if err != nil {
		t.Fatalf("GetSharedBooksForUser() error = %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("GetSharedBooksForUser(alice) returned %d books, want 2", len(books))
	}
	if books[0].ID != b.ID || books[0].MemberCount != 2 || books[1].ID != a.ID {
		t.Errorf("unexpected order or counts: %+v", books)
	}

	members, err := s.GetMembers(b.ID)
	if err != nil {
		t.Fatalf("GetMembers() error = %v", err)
	}
	if len(members) != 2 || members[0].UserID != "bob" || members[1].UserID != "alice" {
		t.Errorf("GetMembers() = %+v", members)
	}
}

func testSharedNotes(t *testing.T, s storage.Provider) {
	book := newSharedBook("alice", "NOTE2345", at(0))
	if err := s.AddSharedBook(book); err != nil {
		t.Fatalf("AddSharedBook() error = %v", err)
	}

	first, err := s.SaveSharedNote(models.SharedNote{BookID: book.ID, UserID: "alice", ChapterNumber: 1, ChapterTitle: "One", Content: "<p>draft</p>", UpdatedAt: at(1)})
	if err != nil {
		t.Fatalf("SaveSharedNote() error = %v", err)
	}
	second, err := s.SaveSharedNote(models.SharedNote{BookID: book.ID, UserID: "alice", ChapterNumber: 1, ChapterTitle: "One", Content: "<p>final</p>", UpdatedAt: at(2)})
	if err != nil {
		t.Fatalf("SaveSharedNote() update error = %v", err)
	}
	if second.ID != first.ID || second.Content != "<p>final</p>" {
		t.Errorf("upsert should keep one note per chapter: first=%+v second=%+v", first, second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("upsert changed CreatedAt from %v to %v", first.CreatedAt, second.CreatedAt)
	}

	if _, err := s.SaveSharedNote(models.SharedNote{BookID: book.ID, UserID: "bob", ChapterNumber: 1, Content: "bob's", UpdatedAt: at(3)}); err != nil {
		t.Fatalf("SaveSharedNote(bob) error = %v", err)
	}
	notes, err := s.GetSharedNotes(book.ID)
	if err != nil {
		t.Fatalf("GetSharedNotes() error = %v", err)
	}
	if len(notes) != 2 || notes[0].UserID != "bob" {
		t.Errorf("GetSharedNotes() = %+v", notes)
	}

	if err := s.DeleteSharedNote(book.ID, "alice", 1); err != nil {
		t.Fatalf("DeleteSharedNote() error = %v", err)
	}
	if err := s.DeleteSharedNote(book.ID, "alice", 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteSharedNote(again) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetSharedNote(book.ID, "alice", 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetSharedNote(deleted) error = %v, want ErrNotFound", err)
	}
}

func testProgress(t *testing.T, s storage.Provider) {
	book := newSharedBook("alice", "PROG4567", at(0))
	if err := s.AddSharedBook(book); err != nil {
		t.Fatalf("AddSharedBook() error = %v", err)
	}

	marks := []struct {
		chapter int
		when    time.Time
	}{
		{chapter: 1, when: at(1)},
		{chapter: 2, when: at(2)},
		{chapter: 2, when: at(7)},
	}
	for _, m := range marks {
		if err := s.SetChapterProgress(book.ID, "alice", m.chapter, true, m.when); err != nil {
			t.Fatalf("SetChapterProgress(%d) error = %v", m.chapter, err)
		}
	}
	if err := s.SetChapterProgress(book.ID, "bob", 3, true, at(9)); err != nil {
		t.Fatalf("SetChapterProgress(bob) error = %v", err)
	}

	progress, err := s.GetProgress(book.ID)
	if err != nil {
		t.Fatalf("GetProgress() error = %v", err)
	}
	if len(progress) != 3 {
		t.Fatalf("GetProgress() returned %d rows, want 3", len(progress))
	}
	if !progress[1].CompletedAt.Equal(at(2)) {
		t.Errorf("re-marking a chapter changed its completion time: %v", progress[1].CompletedAt)
	}

	if err := s.SetChapterProgress(book.ID, "alice", 1, false, time.Time{}); err != nil {
		t.Fatalf("SetChapterProgress(undo) error = %v", err)
	}
	if err := s.SetChapterProgress(book.ID, "alice", 1, false, time.Time{}); err != nil {
		t.Fatalf("SetChapterProgress(undo twice) error = %v", err)
	}
	progress, err = s.GetProgress(book.ID)
	if err != nil {
		t.Fatalf("GetProgress() error = %v", err)
	}
	if len(progress) != 2 {
		t.Errorf("GetProgress() after undo returned %d rows, want 2", len(progress))
	}
}

func testBoard(t *testing.T, s storage.Provider) {
	book := newSharedBook("alice", "BRD56789", at(0))
	if err := s.AddSharedBook(book); err != nil {
		t.Fatalf("AddSharedBook() error = %v", err)
	}

	chapter := 2
	older := models.Post{ID: uuid.New().String(), BookID: book.ID, UserID: "alice", Title: "Question", Content: "What about ch2?", ChapterNumber: &chapter, CreatedAt: at(1)}
	newer := models.Post{ID: uuid.New().String(), BookID: book.ID, UserID: "bob", Title: "Typo", Content: "p.40", CreatedAt: at(2)}
	for _, p := range []models.Post{older, newer} {
		if err := s.AddPost(p); err != nil {
			t.Fatalf("AddPost() error = %v", err)
		}
	}

	posts, err := s.GetPosts(book.ID)
	if err != nil {
		t.Fatalf("GetPosts() error = %v", err)
	}
	if len(posts) != 2 || posts[0].ID != newer.ID {
		t.Errorf("GetPosts() should list newest first: %+v", posts)
	}
	if posts[1].ChapterNumber == nil || *posts[1].ChapterNumber != 2 || posts[1].PageNumber != nil {
		t.Errorf("optional anchors not round-tripped: %+v", posts[1])
	}

	for i, user := range []string{"bob", "alice"} {
		c := models.Comment{ID: uuid.New().String(), PostID: older.ID, UserID: user, Content: "reply", CreatedAt: at(10 + i)}
		if err := s.AddComment(c); err != nil {
			t.Fatalf("AddComment() error = %v", err)
		}
	}
	comments, err := s.GetComments(older.ID)
	if err != nil {
		t.Fatalf("GetComments() error = %v", err)
	}
	if len(comments) != 2 || comments[0].UserID != "bob" {
		t.Errorf("GetComments() should list oldest first: %+v", comments)
	}

	if _, err := s.GetPost("missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetPost(missing) error = %v, want ErrNotFound", err)
	}
}
