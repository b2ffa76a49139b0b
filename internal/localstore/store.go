package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/chapterly/internal/constants"
	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/storage"
)

// Document is the personal data kept in one JSON file. The keys match the
// ones the web client used in local storage, so a browser export can be
// dropped in unchanged.
type Document struct {
	Books    []models.Book
	Notes    []models.ChapterNote
	Wishlist []models.WishlistBook
}

// Store is the single-user store for books, notes and the wishlist.
type Store struct {
	path string
	doc  *Document
	// extra holds keys this program does not own; they are written back untouched.
	extra map[string]json.RawMessage
	// unreadable holds owned keys that failed to decode. Their bytes are
	// written back as read and writes to them are refused.
	unreadable map[string]json.RawMessage
	corrupt    bool
}

func New(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Path() string {
	return s.path
}

// Init creates an empty store file unless one already exists.
func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(s.path); err == nil {
		return s.Load()
	}
	s.doc = &Document{}
	s.extra = map[string]json.RawMessage{}
	s.unreadable = map[string]json.RawMessage{}
	return s.save()
}

// Load reads the file. A missing file is an empty store. A key that fails to
// decode reads as an empty list and is kept verbatim; writes to it fail. A
// file that is not a JSON object at all loads as empty and refuses writes
// until it is repaired.
func (s *Store) Load() error {
	s.doc = &Document{}
	s.extra = map[string]json.RawMessage{}
	s.unreadable = map[string]json.RawMessage{}
	s.corrupt = false

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read local store: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("Local store is unreadable, starting empty", "path", s.path, "error", err)
		s.corrupt = true
		return nil
	}

	if !decodeKey(raw, constants.LocalKeyBooks, &s.doc.Books) {
		s.unreadable[constants.LocalKeyBooks] = raw[constants.LocalKeyBooks]
	}
	if !decodeKey(raw, constants.LocalKeyNotes, &s.doc.Notes) {
		s.unreadable[constants.LocalKeyNotes] = raw[constants.LocalKeyNotes]
	}
	if !decodeKey(raw, constants.LocalKeyWishlist, &s.doc.Wishlist) {
		s.unreadable[constants.LocalKeyWishlist] = raw[constants.LocalKeyWishlist]
	}

	for k, v := range raw {
		switch k {
		case constants.LocalKeyBooks, constants.LocalKeyNotes, constants.LocalKeyWishlist:
		default:
			s.extra[k] = v
		}
	}
	return nil
}

// decodeKey reports false only when key is present but not a list of T.
func decodeKey[T any](raw map[string]json.RawMessage, key string, dst *[]T) bool {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		return true
	}
	var out []T
	if err := json.Unmarshal(v, &out); err != nil {
		logger.Warn("Local store key is unreadable, keeping it as is", "key", key, "error", err)
		return false
	}
	*dst = out
	return true
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) loaded() error {
	if s.doc == nil {
		return fmt.Errorf("storage not loaded")
	}
	return nil
}

func (s *Store) writable(keys ...string) error {
	if err := s.loaded(); err != nil {
		return err
	}
	for _, k := range keys {
		if _, bad := s.unreadable[k]; bad {
			return fmt.Errorf("local store key %q in %s is unreadable; repair it before changing it", k, s.path)
		}
	}
	return nil
}

func (s *Store) save() error {
	if s.corrupt {
		return fmt.Errorf("local store %s is not valid JSON; repair or remove it before saving", s.path)
	}

	out := make(map[string]any, len(s.extra)+3)
	for k, v := range s.extra {
		out[k] = v
	}
	out[constants.LocalKeyBooks] = nonNil(s.doc.Books)
	out[constants.LocalKeyNotes] = nonNil(s.doc.Notes)
	out[constants.LocalKeyWishlist] = nonNil(s.doc.Wishlist)
	for k, v := range s.unreadable {
		out[k] = v
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize local store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".local-*.json")
	if err != nil {
		return fmt.Errorf("failed to write local store: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write local store: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write local store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write local store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write local store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to write local store: %w", err)
	}
	return nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// Books

func (s *Store) Books() ([]models.Book, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	return append([]models.Book(nil), s.doc.Books...), nil
}

func (s *Store) findBook(title string) int {
	for i, b := range s.doc.Books {
		if b.Title == title {
			return i
		}
	}
	return -1
}

func (s *Store) GetBook(title string) (models.Book, error) {
	if err := s.loaded(); err != nil {
		return models.Book{}, err
	}
	i := s.findBook(title)
	if i < 0 {
		return models.Book{}, fmt.Errorf("book %q: %w", title, storage.ErrNotFound)
	}
	return s.doc.Books[i], nil
}

func (s *Store) AddBook(book models.Book) error {
	if err := s.writable(constants.LocalKeyBooks); err != nil {
		return err
	}
	if s.findBook(book.Title) >= 0 {
		return fmt.Errorf("book %q: %w", book.Title, storage.ErrConflict)
	}
	s.doc.Books = append(s.doc.Books, book)
	return s.save()
}

func (s *Store) UpdateBook(book models.Book) error {
	if err := s.writable(constants.LocalKeyBooks); err != nil {
		return err
	}
	i := s.findBook(book.Title)
	if i < 0 {
		return fmt.Errorf("book %q: %w", book.Title, storage.ErrNotFound)
	}
	s.doc.Books[i] = book
	return s.save()
}

func (s *Store) DeleteBook(title string) error {
	if err := s.writable(constants.LocalKeyBooks); err != nil {
		return err
	}
	i := s.findBook(title)
	if i < 0 {
		return fmt.Errorf("book %q: %w", title, storage.ErrNotFound)
	}
	s.doc.Books = append(s.doc.Books[:i], s.doc.Books[i+1:]...)
	return s.save()
}

// Notes

func (s *Store) Notes() ([]models.ChapterNote, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	return append([]models.ChapterNote(nil), s.doc.Notes...), nil
}

func (s *Store) findNote(bookTitle string, chapter int) int {
	key := models.ChapterNote{BookTitle: bookTitle, ChapterIndex: chapter}
	for i, n := range s.doc.Notes {
		if n.SameChapter(key) {
			return i
		}
	}
	return -1
}

func (s *Store) GetNote(bookTitle string, chapter int) (models.ChapterNote, error) {
	if err := s.loaded(); err != nil {
		return models.ChapterNote{}, err
	}
	i := s.findNote(bookTitle, chapter)
	if i < 0 {
		return models.ChapterNote{}, fmt.Errorf("note for %q chapter %d: %w", bookTitle, chapter+1, storage.ErrNotFound)
	}
	return s.doc.Notes[i], nil
}

// PutNote replaces the note for the same (book, chapter) or appends a new one.
func (s *Store) PutNote(note models.ChapterNote) error {
	if err := s.writable(constants.LocalKeyNotes); err != nil {
		return err
	}
	if i := s.findNote(note.BookTitle, note.ChapterIndex); i >= 0 {
		s.doc.Notes[i] = note
	} else {
		s.doc.Notes = append(s.doc.Notes, note)
	}
	return s.save()
}

func (s *Store) DeleteNote(bookTitle string, chapter int) error {
	if err := s.writable(constants.LocalKeyNotes); err != nil {
		return err
	}
	i := s.findNote(bookTitle, chapter)
	if i < 0 {
		return fmt.Errorf("note for %q chapter %d: %w", bookTitle, chapter+1, storage.ErrNotFound)
	}
	s.doc.Notes = append(s.doc.Notes[:i], s.doc.Notes[i+1:]...)
	return s.save()
}

// Wishlist

func (s *Store) Wishlist() ([]models.WishlistBook, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	return append([]models.WishlistBook(nil), s.doc.Wishlist...), nil
}

func (s *Store) findWish(title string) int {
	for i, w := range s.doc.Wishlist {
		if w.Title == title {
			return i
		}
	}
	return -1
}

func (s *Store) GetWish(title string) (models.WishlistBook, error) {
	if err := s.loaded(); err != nil {
		return models.WishlistBook{}, err
	}
	i := s.findWish(title)
	if i < 0 {
		return models.WishlistBook{}, fmt.Errorf("wishlist entry %q: %w", title, storage.ErrNotFound)
	}
	return s.doc.Wishlist[i], nil
}

func (s *Store) AddWish(w models.WishlistBook) error {
	if err := s.writable(constants.LocalKeyWishlist); err != nil {
		return err
	}
	if s.findWish(w.Title) >= 0 {
		return fmt.Errorf("wishlist entry %q: %w", w.Title, storage.ErrConflict)
	}
	s.doc.Wishlist = append(s.doc.Wishlist, w)
	return s.save()
}

func (s *Store) RemoveWish(title string) error {
	if err := s.writable(constants.LocalKeyWishlist); err != nil {
		return err
	}
	i := s.findWish(title)
	if i < 0 {
		return fmt.Errorf("wishlist entry %q: %w", title, storage.ErrNotFound)
	}
	s.doc.Wishlist = append(s.doc.Wishlist[:i], s.doc.Wishlist[i+1:]...)
	return s.save()
}

// Promote moves a wishlist entry onto the dashboard as book. The wishlist
// entry is removed only once the book is stored.
func (s *Store) Promote(book models.Book) error {
	if err := s.writable(constants.LocalKeyBooks, constants.LocalKeyWishlist); err != nil {
		return err
	}
	i := s.findWish(book.Title)
	if i < 0 {
		return fmt.Errorf("wishlist entry %q: %w", book.Title, storage.ErrNotFound)
	}
	if s.findBook(book.Title) >= 0 {
		return fmt.Errorf("book %q: %w", book.Title, storage.ErrConflict)
	}
	s.doc.Books = append(s.doc.Books, book)
	s.doc.Wishlist = append(s.doc.Wishlist[:i], s.doc.Wishlist[i+1:]...)
	return s.save()
}
