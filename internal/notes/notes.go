// Package notes handles personal chapter notes. Writing a note for a chapter
// also marks that chapter read.
package notes

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/julianstephens/chapterly/internal/errors"
	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/utils"
)

type Store interface {
	GetBook(title string) (models.Book, error)
	UpdateBook(models.Book) error
	Notes() ([]models.ChapterNote, error)
	GetNote(bookTitle string, chapter int) (models.ChapterNote, error)
	PutNote(models.ChapterNote) error
	DeleteNote(bookTitle string, chapter int) error
}

type Service struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Write saves the note for chapter (0-based) of a book, replacing any earlier
// note for that chapter but keeping its creation time. The chapter is marked
// read if it was not already.
func (s *Service) Write(bookTitle string, chapter int, content string) (models.ChapterNote, models.Book, error) {
	if strings.TrimSpace(content) == "" {
		return models.ChapterNote{}, models.Book{}, apperrors.Invalid("content", "is required")
	}
	book, err := s.store.GetBook(bookTitle)
	if err != nil {
		return models.ChapterNote{}, models.Book{}, err
	}
	if n := book.ChapterCount(); chapter < 0 || chapter >= n {
		return models.ChapterNote{}, models.Book{}, apperrors.Invalid("chapter", fmt.Sprintf("must be between 1 and %d", n))
	}

	now := utils.FormatTimestamp(s.now())
	note := models.ChapterNote{
		BookTitle:    book.Title,
		BookAuthor:   book.Author,
		ChapterIndex: chapter,
		ChapterTitle: book.ChapterTitle(chapter),
		Content:      content,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if existing, err := s.store.GetNote(book.Title, chapter); err == nil && existing.CreatedAt != "" {
		note.CreatedAt = existing.CreatedAt
	}
	if err := s.store.PutNote(note); err != nil {
		return models.ChapterNote{}, models.Book{}, err
	}

	if !book.CompletedChapters.Contains(chapter) {
		book = book.MarkChapter(chapter, true)
		if err := s.store.UpdateBook(book); err != nil {
			return models.ChapterNote{}, models.Book{}, fmt.Errorf("note saved but progress was not updated: %w", err)
		}
	}
	logger.Info("Saved note", "book", book.Title, "chapter", chapter+1)
	return note, book, nil
}

func (s *Service) Get(bookTitle string, chapter int) (models.ChapterNote, error) {
	return s.store.GetNote(bookTitle, chapter)
}

func (s *Service) Delete(bookTitle string, chapter int) error {
	return s.store.DeleteNote(bookTitle, chapter)
}

// ForBook lists a book's notes in chapter order.
func (s *Service) ForBook(bookTitle string) ([]models.ChapterNote, error) {
	all, err := s.store.Notes()
	if err != nil {
		return nil, err
	}
	var out []models.ChapterNote
	for _, n := range all {
		if n.BookTitle == bookTitle {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChapterIndex < out[j].ChapterIndex })
	return out, nil
}

// Filter narrows History. Zero values match everything.
type Filter struct {
	Book   string
	Search string    // case-insensitive match on content, chapter title or book title
	Since  time.Time // notes last touched at or after this instant
}

func (f Filter) match(n models.ChapterNote) bool {
	if f.Book != "" && n.BookTitle != f.Book {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(n.Content), q) &&
			!strings.Contains(strings.ToLower(n.ChapterTitle), q) &&
			!strings.Contains(strings.ToLower(n.BookTitle), q) {
			return false
		}
	}
	if !f.Since.IsZero() {
		t, err := utils.ParseTimestamp(n.LastTouched())
		if err != nil || t.Before(f.Since) {
			return false
		}
	}
	return true
}

// History lists matching notes, most recently touched first.
func (s *Service) History(f Filter) ([]models.ChapterNote, error) {
	all, err := s.store.Notes()
	if err != nil {
		return nil, err
	}
	var out []models.ChapterNote
	for _, n := range all {
		if f.match(n) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return touched(out[i]).After(touched(out[j]))
	})
	return out, nil
}

func touched(n models.ChapterNote) time.Time {
	t, err := utils.ParseTimestamp(n.LastTouched())
	if err != nil {
		return time.Time{}
	}
	return t
}
