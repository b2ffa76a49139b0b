package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/julianstephens/chapterly/internal/booksearch"
	"github.com/julianstephens/chapterly/internal/catalog"
	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/shared"
	"github.com/julianstephens/chapterly/internal/storage/sqlite"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store, opts...)
}

func call(t *testing.T, h http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := call(t, h, http.MethodGet, "/healthz", "", nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestRequiresUser(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := call(t, h, http.MethodGet, "/api/shared-books", "", nil)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestChapterSetVoting(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := call(t, h, http.MethodPost, "/api/book-info", "alice", bookInfoRequest{Title: "Dune", ISBN: "9780441172719"})
	expectStatus(t, rec, http.StatusOK)
	info := decode[models.BookInfo](t, rec)

	rec = call(t, h, http.MethodGet, "/api/book-info/"+info.ID, "bob", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.BookInfo](t, rec); got.ISBN != "9780441172719" {
		t.Errorf("GET book-info ISBN = %q", got.ISBN)
	}
	rec = call(t, h, http.MethodGet, "/api/book-info/missing", "bob", nil)
	expectStatus(t, rec, http.StatusNotFound)

	path := "/api/books/" + info.ID + "/chapter-sets"
	rec = call(t, h, http.MethodPost, path, "alice", chapterSetRequest{Input: "Book One\nBook Two"})
	expectStatus(t, rec, http.StatusCreated)
	first := decode[catalog.Submission](t, rec)

	rec = call(t, h, http.MethodPost, path, "bob", chapterSetRequest{Input: "  book one\n\nBOOK TWO  "})
	expectStatus(t, rec, http.StatusOK)
	second := decode[catalog.Submission](t, rec)
	if second.Created || second.Set.ID != first.Set.ID {
		t.Fatalf("second submission should vote for %s, got %+v", first.Set.ID, second)
	}
	if second.Set.SelectionCount != 2 {
		t.Errorf("SelectionCount = %d, want 2", second.Set.SelectionCount)
	}

	rec = call(t, h, http.MethodGet, path, "alice", nil)
	expectStatus(t, rec, http.StatusOK)
	sets := decode[[]models.ChapterSet](t, rec)
	if len(sets) != 1 {
		t.Fatalf("got %d sets, want 1", len(sets))
	}
	if got := strings.Join(sets[0].ChapterList, "|"); got != "Book One|Book Two" {
		t.Errorf("ChapterList = %q, want the first submission's list", got)
	}

	rec = call(t, h, http.MethodGet, "/api/chapter-sets/"+first.Set.ID+"/history", "alice", nil)
	expectStatus(t, rec, http.StatusOK)
	if log := decode[[]models.ChapterSelection](t, rec); len(log) != 2 {
		t.Errorf("history has %d entries, want 2", len(log))
	}

	rec = call(t, h, http.MethodGet, "/api/chapter-sets/missing/history", "alice", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestValidationErrors(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := call(t, h, http.MethodPost, "/api/book-info", "alice", bookInfoRequest{Title: "   "})
	expectStatus(t, rec, http.StatusBadRequest)
	fields := decode[map[string]string](t, rec)
	if _, ok := fields["title"]; !ok {
		t.Errorf("expected a title error, got %v", fields)
	}

	rec = call(t, h, http.MethodPost, "/api/books/missing/chapter-sets", "alice", chapterSetRequest{Input: "One"})
	expectStatus(t, rec, http.StatusNotFound)

	req := httptest.NewRequest(http.MethodPost, "/api/shared-books", strings.NewReader("{not json"))
	req.Header.Set(userHeader, "alice")
	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, req)
	expectStatus(t, bad, http.StatusBadRequest)
}

func TestSharedBookFlow(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := call(t, h, http.MethodPost, "/api/shared-books", "alice", sharedBookRequest{
		Title:    "The Hobbit",
		Pages:    300,
		Chapters: "An Unexpected Party\nRoast Mutton\nA Short Rest",
	})
	expectStatus(t, rec, http.StatusCreated)
	book := decode[models.SharedBook](t, rec)
	if book.TotalChapters != 3 || len(book.InviteCode) != 8 {
		t.Fatalf("unexpected book %+v", book)
	}
	bookPath := "/api/shared-books/" + book.ID

	expectStatus(t, call(t, h, http.MethodGet, bookPath, "bob", nil), http.StatusForbidden)
	expectStatus(t, call(t, h, http.MethodGet, "/api/shared-books/nope", "bob", nil), http.StatusNotFound)

	join := joinRequest{InviteCode: " " + strings.ToLower(book.InviteCode) + " "}
	expectStatus(t, call(t, h, http.MethodPost, "/api/shared-books/join", "bob", join), http.StatusOK)
	rec = call(t, h, http.MethodPost, "/api/shared-books/join", "bob", join)
	expectStatus(t, rec, http.StatusConflict)
	if msg := decode[map[string]string](t, rec)["error"]; !strings.Contains(msg, "The Hobbit") {
		t.Errorf("conflict message %q should name the book", msg)
	}

	rec = call(t, h, http.MethodGet, bookPath, "bob", nil)
	expectStatus(t, rec, http.StatusOK)
	if d := decode[shared.Detail](t, rec); len(d.Members) != 2 {
		t.Errorf("members = %d, want 2", len(d.Members))
	}

	one := 1
	rec = call(t, h, http.MethodPost, bookPath+"/progress", "bob", progressRequest{Chapter: &one})
	expectStatus(t, rec, http.StatusOK)
	progress := decode[[]shared.MemberProgress](t, rec)
	for _, p := range progress {
		if p.Member.UserID == "bob" && (len(p.Completed) != 1 || p.Completed[0] != 1) {
			t.Errorf("bob completed = %v, want [1]", p.Completed)
		}
	}

	ten := 10
	expectStatus(t, call(t, h, http.MethodPost, bookPath+"/progress", "bob", progressRequest{Chapter: &ten}), http.StatusBadRequest)
	expectStatus(t, call(t, h, http.MethodPost, bookPath+"/progress", "bob", progressRequest{}), http.StatusBadRequest)

	zero := 0
	expectStatus(t, call(t, h, http.MethodPost, bookPath+"/notes", "alice", sharedNoteRequest{Chapter: &zero, Content: "Great opening"}), http.StatusOK)
	rec = call(t, h, http.MethodGet, bookPath+"/notes?chapter=0", "bob", nil)
	expectStatus(t, rec, http.StatusOK)
	if notes := decode[[]models.SharedNote](t, rec); len(notes) != 1 || notes[0].Content != "Great opening" {
		t.Errorf("notes = %+v", notes)
	}
	expectStatus(t, call(t, h, http.MethodDelete, bookPath+"/notes/0", "alice", nil), http.StatusNoContent)

	rec = call(t, h, http.MethodPost, bookPath+"/posts", "bob", postRequest{Title: "Trolls", Content: "Why didn't they notice the dawn?", ChapterNumber: &one})
	expectStatus(t, rec, http.StatusCreated)
	post := decode[models.Post](t, rec)

	expectStatus(t, call(t, h, http.MethodPost, "/api/posts/"+post.ID+"/comments", "alice", commentRequest{Content: "Gandalf's trick"}), http.StatusCreated)
	rec = call(t, h, http.MethodGet, "/api/posts/"+post.ID+"/comments", "alice", nil)
	expectStatus(t, rec, http.StatusOK)
	if comments := decode[[]models.Comment](t, rec); len(comments) != 1 {
		t.Errorf("comments = %d, want 1", len(comments))
	}

	expectStatus(t, call(t, h, http.MethodGet, "/api/posts/"+post.ID+"/comments", "carol", nil), http.StatusForbidden)
}

func TestProfile(t *testing.T) {
	h := newTestServer(t).Handler()
	name := "Alice"
	rec := call(t, h, http.MethodPut, "/api/profile", "alice", profileRequest{DisplayName: &name})
	expectStatus(t, rec, http.StatusOK)

	rec = call(t, h, http.MethodGet, "/api/profile", "alice", nil)
	expectStatus(t, rec, http.StatusOK)
	if p := decode[models.Profile](t, rec); p.DisplayName != "Alice" {
		t.Errorf("DisplayName = %q, want Alice", p.DisplayName)
	}

	bad := "not-an-email"
	expectStatus(t, call(t, h, http.MethodPut, "/api/profile", "alice", profileRequest{Email: &bad}), http.StatusBadRequest)
}

type stubSearcher struct {
	items []booksearch.Item
	err   error
}

func (s stubSearcher) Search(context.Context, string) ([]booksearch.Item, error) {
	return s.items, s.err
}

func TestSearch(t *testing.T) {
	h := newTestServer(t, WithSearcher(stubSearcher{items: []booksearch.Item{{Title: "Dune", ISBN13: "9780441172719"}}})).Handler()
	expectStatus(t, call(t, h, http.MethodGet, "/api/search", "alice", nil), http.StatusBadRequest)

	rec := call(t, h, http.MethodGet, "/api/search?q=dune", "alice", nil)
	expectStatus(t, rec, http.StatusOK)
	if items := decode[[]booksearch.Item](t, rec); len(items) != 1 || items[0].Title != "Dune" {
		t.Errorf("items = %+v", items)
	}

	failing := newTestServer(t, WithSearcher(stubSearcher{err: errors.New("upstream down")})).Handler()
	expectStatus(t, call(t, failing, http.MethodGet, "/api/search?q=dune", "alice", nil), http.StatusBadGateway)
}

func TestBoardFeed(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.hub.Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	h := srv.Handler()

	rec := call(t, h, http.MethodPost, "/api/shared-books", "alice", sharedBookRequest{Title: "Emma", Chapters: "One\nTwo"})
	expectStatus(t, rec, http.StatusCreated)
	book := decode[models.SharedBook](t, rec)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/shared-books/" + book.ID + "/board"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?user=mallory", nil)
	if err == nil {
		t.Fatal("non-member should not be able to subscribe")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-member handshake response = %v, want 403", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?user=alice", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello welcome
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if hello.Type != "subscribed" || hello.BookID != book.ID {
		t.Fatalf("welcome = %+v", hello)
	}

	expectStatus(t, call(t, h, http.MethodPost, "/api/shared-books/"+book.ID+"/posts", "alice", postRequest{Title: "Hi", Content: "First post"}), http.StatusCreated)

	var ev shared.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != shared.EventPostCreated || ev.BookID != book.ID || ev.UserID != "alice" {
		t.Errorf("event = %+v", ev)
	}
}
