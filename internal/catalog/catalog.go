// Package catalog keeps the shared book records and the community-voted
// chapter lists attached to them.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/chapterly/internal/chapters"
	apperrors "github.com/julianstephens/chapterly/internal/errors"
	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/storage"
)

type Service struct {
	store storage.Provider
	now   func() time.Time
}

func New(store storage.Provider) *Service {
	return &Service{store: store, now: time.Now}
}

// BookInfoInput describes a book as entered by the user or returned by search.
type BookInfoInput struct {
	ISBN      string `json:"isbn"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Publisher string `json:"publisher"`
}

// FindOrCreateBookInfo returns the record with the same ISBN when there is
// one, otherwise it stores a new record. Books without an ISBN always get a
// new record.
func (s *Service) FindOrCreateBookInfo(in BookInfoInput) (models.BookInfo, error) {
	in.ISBN = strings.TrimSpace(in.ISBN)
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return models.BookInfo{}, apperrors.Invalid("title", "is required")
	}

	if in.ISBN != "" {
		existing, err := s.store.GetBookInfoByISBN(in.ISBN)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return models.BookInfo{}, err
		}
	}

	now := s.now()
	info := models.BookInfo{
		ID:        uuid.New().String(),
		ISBN:      in.ISBN,
		Title:     in.Title,
		Author:    strings.TrimSpace(in.Author),
		Publisher: strings.TrimSpace(in.Publisher),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.AddBookInfo(info); err != nil {
		// Someone else stored the same ISBN between the lookup and the insert.
		if errors.Is(err, storage.ErrConflict) && in.ISBN != "" {
			return s.store.GetBookInfoByISBN(in.ISBN)
		}
		return models.BookInfo{}, err
	}
	logger.Debug("Created book info", "id", info.ID, "title", info.Title, "isbn", info.ISBN)
	return info, nil
}

func (s *Service) GetBookInfo(id string) (models.BookInfo, error) {
	return s.store.GetBookInfo(id)
}

func (s *Service) Search(query string) ([]models.BookInfo, error) {
	return s.store.SearchBookInfo(strings.TrimSpace(query))
}

// ListChapterSets returns the chapter lists submitted for a book, most
// selected first.
func (s *Service) ListChapterSets(bookInfoID string) ([]models.ChapterSet, error) {
	if _, err := s.store.GetBookInfo(bookInfoID); err != nil {
		return nil, err
	}
	return s.store.GetChapterSets(bookInfoID)
}

// Submission is the outcome of SubmitChapterSet.
type Submission struct {
	Set models.ChapterSet `json:"chapter_set"`
	// Created is true when the input started a new chapter set.
	Created bool `json:"created"`
	// Collision is true when the vote merged into a set whose text differs
	// from the input despite sharing its hash.
	Collision bool `json:"collision"`
}

// SubmitChapterSet records userID choosing the chapter list in input for a
// book. Lists that differ only in whitespace or case count as the same list.
func (s *Service) SubmitChapterSet(bookInfoID, input, userID string) (Submission, error) {
	if strings.TrimSpace(userID) == "" {
		return Submission{}, apperrors.Invalid("user", "is required")
	}
	list := chapters.ParseList(input)
	if len(list) == 0 {
		return Submission{}, apperrors.Invalid("chapters", "no chapters found in input")
	}
	if _, err := s.store.GetBookInfo(bookInfoID); err != nil {
		return Submission{}, err
	}

	normalized := chapters.Normalize(input)
	set := models.ChapterSet{
		ID:             uuid.New().String(),
		BookInfoID:     bookInfoID,
		NormalizedHash: chapters.Hash(normalized),
		OriginalInput:  input,
		ChapterList:    list,
	}
	stored, created, err := s.store.RecordChapterSetSelection(set, userID, s.now())
	if err != nil {
		return Submission{}, fmt.Errorf("failed to submit chapter set: %w", err)
	}

	sub := Submission{Set: stored, Created: created}
	if !created && chapters.Normalize(stored.OriginalInput) != normalized {
		sub.Collision = true
		logger.Warn("Chapter list merged into a different list with the same hash",
			"book_info_id", bookInfoID, "hash", stored.NormalizedHash, "chapter_set_id", stored.ID)
	}
	logger.Info("Recorded chapter set selection",
		"book_info_id", bookInfoID, "chapter_set_id", stored.ID, "created", created, "count", stored.SelectionCount)
	return sub, nil
}

// History returns who picked a chapter set and when, newest first.
func (s *Service) History(chapterSetID string) ([]models.ChapterSelection, error) {
	if _, err := s.store.GetChapterSet(chapterSetID); err != nil {
		return nil, err
	}
	return s.store.GetChapterSetLog(chapterSetID)
}
