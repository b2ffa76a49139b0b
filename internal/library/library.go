// Package library manages the personal bookshelf: books, their study plans,
// chapter progress and the wishlist.
package library

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/julianstephens/chapterly/internal/chapters"
	"github.com/julianstephens/chapterly/internal/constants"
	apperrors "github.com/julianstephens/chapterly/internal/errors"
	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/pace"
	"github.com/julianstephens/chapterly/internal/storage"
	"github.com/julianstephens/chapterly/internal/utils"
)

// Store is the subset of the local store the library needs.
type Store interface {
	Books() ([]models.Book, error)
	GetBook(title string) (models.Book, error)
	AddBook(models.Book) error
	UpdateBook(models.Book) error
	DeleteBook(title string) error
	Wishlist() ([]models.WishlistBook, error)
	GetWish(title string) (models.WishlistBook, error)
	AddWish(models.WishlistBook) error
	RemoveWish(title string) error
	Promote(models.Book) error
}

type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

func New(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: store, loc: loc, now: time.Now}
}

// Today is the current time in the configured timezone.
func (s *Service) Today() time.Time {
	return s.now().In(s.loc)
}

// NewBook is the user input for adding a book.
type NewBook struct {
	Title     string
	Author    string
	Publisher string
	ISBN      string
	Cover     string
	Pages     int
	// ChapterText is one chapter per line; lines starting with "#" open a part.
	ChapterText string
	BookInfoID  string
}

func (s *Service) buildBook(in NewBook) (models.Book, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Book{}, apperrors.Invalid("title", "is required")
	}
	if in.Pages < 0 {
		return models.Book{}, apperrors.Invalid("pages", "must not be negative")
	}
	parts, flat := chapters.ParseParts(in.ChapterText)
	book := models.Book{
		Title:             title,
		Author:            strings.TrimSpace(in.Author),
		Publisher:         strings.TrimSpace(in.Publisher),
		ISBN:              strings.TrimSpace(in.ISBN),
		Cover:             strings.TrimSpace(in.Cover),
		Pages:             in.Pages,
		Chapters:          flat,
		Parts:             parts,
		TotalChapters:     chapters.TotalChapters(parts, flat),
		CompletedChapters: models.ChapterIndexes{},
		BookInfoID:        in.BookInfoID,
		CreatedAt:         utils.FormatTimestamp(s.now()),
	}
	if book.Chapters == nil {
		book.Chapters = []string{}
	}
	if err := book.Validate(); err != nil {
		return models.Book{}, apperrors.Invalid("book", err.Error())
	}
	return book, nil
}

// AddBook stores a new book. Titles are unique.
func (s *Service) AddBook(in NewBook) (models.Book, error) {
	book, err := s.buildBook(in)
	if err != nil {
		return models.Book{}, err
	}
	if err := s.store.AddBook(book); err != nil {
		return models.Book{}, err
	}
	logger.Info("Added book", "title", book.Title, "chapters", book.TotalChapters)
	return book, nil
}

// Books lists books on a shelf; an empty shelf lists everything.
func (s *Service) Books(shelf constants.ShelfKind) ([]models.Book, error) {
	all, err := s.store.Books()
	if err != nil {
		return nil, err
	}
	if shelf == "" {
		return all, nil
	}
	out := make([]models.Book, 0, len(all))
	for _, b := range all {
		if b.Shelf() == shelf {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Service) Book(title string) (models.Book, error) {
	return s.store.GetBook(title)
}

func (s *Service) DeleteBook(title string) error {
	if err := s.store.DeleteBook(title); err != nil {
		return err
	}
	logger.Info("Deleted book", "title", title)
	return nil
}

// SetCompleted moves a book between the reading and completed shelves.
func (s *Service) SetCompleted(title string, done bool) (models.Book, error) {
	book, err := s.store.GetBook(title)
	if err != nil {
		return models.Book{}, err
	}
	book.IsCompleted = done
	if err := s.store.UpdateBook(book); err != nil {
		return models.Book{}, err
	}
	return book, nil
}

// MarkChapter marks chapter (0-based) done or not done and recomputes progress.
func (s *Service) MarkChapter(title string, chapter int, done bool) (models.Book, error) {
	book, err := s.store.GetBook(title)
	if err != nil {
		return models.Book{}, err
	}
	if n := book.ChapterCount(); chapter < 0 || chapter >= n {
		return models.Book{}, apperrors.Invalid("chapter", fmt.Sprintf("must be between 1 and %d", n))
	}
	book = book.MarkChapter(chapter, done)
	if err := s.store.UpdateBook(book); err != nil {
		return models.Book{}, err
	}
	logger.Debug("Marked chapter", "title", title, "chapter", chapter+1, "done", done, "progress", book.Progress)
	return book, nil
}

// SetPlan rebuilds the book's plan from one edit. With fromHere the plan only
// covers what is left after the completed chapters.
func (s *Service) SetPlan(title string, edit pace.Edit, fromHere bool) (models.Book, error) {
	book, err := s.store.GetBook(title)
	if err != nil {
		return models.Book{}, err
	}
	totals := pace.Totals{Chapters: book.ChapterCount(), Pages: book.Pages}
	if fromHere {
		totals = totals.Remaining(len(book.CompletedChapters))
	}
	plan, err := pace.Apply(totals, edit, s.Today())
	if err != nil {
		return models.Book{}, err
	}
	if fromHere {
		plan.Baseline = len(book.CompletedChapters)
	}
	book.Plan = &plan
	if err := s.store.UpdateBook(book); err != nil {
		return models.Book{}, err
	}
	logger.Info("Updated plan", "title", title, "mode", plan.Mode, "end", plan.EndDate())
	return book, nil
}

func (s *Service) ClearPlan(title string) (models.Book, error) {
	book, err := s.store.GetBook(title)
	if err != nil {
		return models.Book{}, err
	}
	book.Plan = nil
	if err := s.store.UpdateBook(book); err != nil {
		return models.Book{}, err
	}
	return book, nil
}

// PlanStatus compares the book's progress with its plan as of today.
func (s *Service) PlanStatus(title string) (models.Book, pace.Progress, error) {
	book, err := s.store.GetBook(title)
	if err != nil {
		return models.Book{}, pace.Progress{}, err
	}
	if book.Plan == nil {
		return book, pace.Progress{}, nil
	}
	return book, pace.Status(*book.Plan, book.ChapterCount(), len(book.CompletedChapters), s.Today()), nil
}

// Wishlist

func (s *Service) Wishlist() ([]models.WishlistBook, error) {
	return s.store.Wishlist()
}

func (s *Service) AddWish(w models.WishlistBook) (models.WishlistBook, error) {
	w.Title = strings.TrimSpace(w.Title)
	if w.Title == "" {
		return models.WishlistBook{}, apperrors.Invalid("title", "is required")
	}
	if w.AddedAt == "" {
		w.AddedAt = utils.FormatTimestamp(s.now())
	}
	if err := s.store.AddWish(w); err != nil {
		return models.WishlistBook{}, err
	}
	return w, nil
}

func (s *Service) RemoveWish(title string) error {
	return s.store.RemoveWish(title)
}

// Promote turns a wishlist entry into a dashboard book with the given chapters.
func (s *Service) Promote(title, chapterText string, pages int) (models.Book, error) {
	wish, err := s.store.GetWish(title)
	if err != nil {
		return models.Book{}, err
	}
	book, err := s.buildBook(NewBook{
		Title:       wish.Title,
		Author:      wish.Author,
		ISBN:        wish.ISBN,
		Cover:       wish.Cover,
		Pages:       pages,
		ChapterText: chapterText,
	})
	if err != nil {
		return models.Book{}, err
	}
	if err := s.store.Promote(book); err != nil {
		return models.Book{}, err
	}
	logger.Info("Promoted wishlist entry", "title", book.Title)
	return book, nil
}

// Suggest returns up to limit book titles that fuzzily match query, best
// match first.
func (s *Service) Suggest(query string, limit int) ([]string, error) {
	books, err := s.store.Books()
	if err != nil {
		return nil, err
	}
	titles := make([]string, len(books))
	for i, b := range books {
		titles[i] = b.Title
	}
	matches := fuzzy.Find(query, titles)
	out := make([]string, 0, limit)
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, m.Str)
	}
	return out, nil
}

// WithSuggestion decorates a not-found error for title with the closest
// existing title.
func (s *Service) WithSuggestion(title string, err error) error {
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if hits, serr := s.Suggest(title, 1); serr == nil && len(hits) > 0 {
		return fmt.Errorf("%w (did you mean %q?)", err, hits[0])
	}
	return err
}
