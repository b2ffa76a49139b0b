package localstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/storage"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "local.json"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return s
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	books, err := s.Books()
	if err != nil {
		t.Fatalf("Books() error = %v", err)
	}
	if len(books) != 0 {
		t.Errorf("expected no books, got %d", len(books))
	}
}

func TestLoad_BrowserExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	data := `{
		"dashboardBooks": [{"title": "클린 코드", "chapters": ["깨끗한 코드", "의미 있는 이름"], "completedChapters": [1], "progress": 50, "pages": "584"}],
		"chapterNotes": [{"bookTitle": "클린 코드", "chapterIndex": 1, "content": "<p>이름</p>", "createdAt": "2024-06-01T10:00:00.000Z"}],
		"wishlistBooks": "this is not a list",
		"theme": "dark"
	}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	s := New(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	book, err := s.GetBook("클린 코드")
	if err != nil {
		t.Fatalf("GetBook() error = %v", err)
	}
	if book.Pages != 584 || book.TotalChapters != 2 {
		t.Errorf("unexpected book: %+v", book)
	}
	if _, err := s.GetNote("클린 코드", 1); err != nil {
		t.Errorf("GetNote() error = %v", err)
	}
	wishes, _ := s.Wishlist()
	if len(wishes) != 0 {
		t.Errorf("unreadable wishlist should load empty, got %v", wishes)
	}

	// Unknown keys survive a write.
	if err := s.AddBook(models.Book{Title: "Go"}); err != nil {
		t.Fatalf("AddBook() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("written file is not JSON: %v", err)
	}
	if string(out["theme"]) != `"dark"` {
		t.Errorf("theme = %s, want \"dark\"", out["theme"])
	}
}

func TestLoad_UnreadableKeyIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	books := `{"title": 42, "chapters": "oops"}`
	data := `{"dashboardBooks": ` + books + `, "wishlistBooks": [{"title": "Dune"}]}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	s := New(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got, _ := s.Books(); len(got) != 0 {
		t.Errorf("unreadable books should read as empty, got %v", got)
	}

	if err := s.AddWish(models.WishlistBook{Title: "Go"}); err != nil {
		t.Fatalf("AddWish() error = %v", err)
	}
	if err := s.AddBook(models.Book{Title: "x"}); err == nil {
		t.Error("expected a write to the unreadable key to fail")
	}
	if err := s.Promote(models.Book{Title: "Dune"}); err == nil {
		t.Error("expected Promote into the unreadable key to fail")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("written file is not JSON: %v", err)
	}
	var gotBooks, wantBooks any
	if err := json.Unmarshal(out["dashboardBooks"], &gotBooks); err != nil {
		t.Fatalf("dashboardBooks = %s: %v", out["dashboardBooks"], err)
	}
	_ = json.Unmarshal([]byte(books), &wantBooks)
	if !reflect.DeepEqual(gotBooks, wantBooks) {
		t.Errorf("dashboardBooks = %s, want the original value %s", out["dashboardBooks"], books)
	}

	reloaded := New(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if wishes, _ := reloaded.Wishlist(); len(wishes) != 2 {
		t.Errorf("expected 2 wishlist entries after reload, got %v", wishes)
	}
}

func TestLoad_CorruptFileRefusesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	s := New(path)
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if books, _ := s.Books(); len(books) != 0 {
		t.Errorf("expected empty store, got %d books", len(books))
	}
	if err := s.AddBook(models.Book{Title: "x"}); err == nil {
		t.Fatal("expected write to a corrupt store to fail")
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "{not json" {
		t.Errorf("corrupt file was overwritten: %q", raw)
	}
}

func TestBooks_CRUD(t *testing.T) {
	s := setupStore(t)

	book := models.Book{Title: "Go", Chapters: []string{"a", "b"}, TotalChapters: 2}
	if err := s.AddBook(book); err != nil {
		t.Fatalf("AddBook() error = %v", err)
	}
	if err := s.AddBook(book); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate AddBook() error = %v, want ErrConflict", err)
	}

	book.CompletedChapters = models.ChapterIndexes{0}
	book.Progress = 50
	if err := s.UpdateBook(book); err != nil {
		t.Fatalf("UpdateBook() error = %v", err)
	}

	reopened := New(s.Path())
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got, err := reopened.GetBook("Go")
	if err != nil {
		t.Fatalf("GetBook() error = %v", err)
	}
	if got.Progress != 50 || !got.CompletedChapters.Contains(0) {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := reopened.DeleteBook("Go"); err != nil {
		t.Fatalf("DeleteBook() error = %v", err)
	}
	if _, err := reopened.GetBook("Go"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetBook() after delete error = %v, want ErrNotFound", err)
	}
	if err := reopened.UpdateBook(book); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateBook() of missing book error = %v, want ErrNotFound", err)
	}
}

func TestNotes_PutReplacesSameChapter(t *testing.T) {
	s := setupStore(t)

	first := models.ChapterNote{BookTitle: "Go", ChapterIndex: 2, Content: "one", CreatedAt: "2025-01-01T00:00:00.000Z"}
	if err := s.PutNote(first); err != nil {
		t.Fatalf("PutNote() error = %v", err)
	}
	second := first
	second.Content = "two"
	if err := s.PutNote(second); err != nil {
		t.Fatalf("PutNote() error = %v", err)
	}
	if err := s.PutNote(models.ChapterNote{BookTitle: "Go", ChapterIndex: 3, Content: "other"}); err != nil {
		t.Fatalf("PutNote() error = %v", err)
	}

	notes, _ := s.Notes()
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	got, _ := s.GetNote("Go", 2)
	if got.Content != "two" {
		t.Errorf("Content = %q, want %q", got.Content, "two")
	}

	if err := s.DeleteNote("Go", 2); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
	if err := s.DeleteNote("Go", 2); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second DeleteNote() error = %v, want ErrNotFound", err)
	}
}

func TestWishlist_Promote(t *testing.T) {
	s := setupStore(t)

	if err := s.AddWish(models.WishlistBook{Title: "Rust"}); err != nil {
		t.Fatalf("AddWish() error = %v", err)
	}
	if err := s.AddWish(models.WishlistBook{Title: "Rust"}); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate AddWish() error = %v, want ErrConflict", err)
	}
	if err := s.Promote(models.Book{Title: "Missing"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Promote() of missing entry error = %v, want ErrNotFound", err)
	}
	if err := s.Promote(models.Book{Title: "Rust", Chapters: []string{"intro"}, TotalChapters: 1}); err != nil {
		t.Fatalf("Promote() error = %v", err)
	}

	wishes, _ := s.Wishlist()
	if len(wishes) != 0 {
		t.Errorf("wishlist should be empty after promote, got %v", wishes)
	}
	if _, err := s.GetBook("Rust"); err != nil {
		t.Errorf("promoted book missing: %v", err)
	}
}

func TestSave_FilePermissions(t *testing.T) {
	s := setupStore(t)
	if err := s.AddWish(models.WishlistBook{Title: "x"}); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
	entries, _ := os.ReadDir(filepath.Dir(s.Path()))
	if len(entries) != 1 {
		t.Errorf("expected only the store file, found %d entries", len(entries))
	}
}
