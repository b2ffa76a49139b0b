package shared

import (
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/chapterly/internal/errors"
	"github.com/julianstephens/chapterly/internal/models"
)

// SaveNote writes userID's note on chapter (0-based), replacing their earlier
// note on the same chapter.
func (s *Service) SaveNote(userID, bookID string, chapter int, content string) (models.SharedNote, error) {
	if strings.TrimSpace(content) == "" {
		return models.SharedNote{}, apperrors.Invalid("content", "is required")
	}
	book, err := s.requireMember(userID, bookID)
	if err != nil {
		return models.SharedNote{}, err
	}
	if err := s.checkChapter(book, chapter); err != nil {
		return models.SharedNote{}, err
	}

	title := models.Book{Chapters: book.Chapters, Parts: book.Parts}.ChapterTitle(chapter)
	now := s.now()
	note, err := s.store.SaveSharedNote(models.SharedNote{
		ID:            uuid.New().String(),
		BookID:        bookID,
		UserID:        userID,
		ChapterNumber: chapter,
		ChapterTitle:  title,
		Content:       content,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return models.SharedNote{}, err
	}
	if p, err := s.store.GetProfile(userID); err == nil {
		note.Author = &p
	}
	s.notifier.Publish(bookID, Event{Type: EventNoteSaved, BookID: bookID, UserID: userID, Chapter: &chapter, Payload: note})
	return note, nil
}

// Notes lists all members' notes on a book with their authors. A chapter of
// -1 lists every chapter.
func (s *Service) Notes(userID, bookID string, chapter int) ([]models.SharedNote, error) {
	if _, err := s.requireMember(userID, bookID); err != nil {
		return nil, err
	}
	all, err := s.store.GetSharedNotes(bookID)
	if err != nil {
		return nil, err
	}
	var out []models.SharedNote
	for _, n := range all {
		if chapter < 0 || n.ChapterNumber == chapter {
			out = append(out, n)
		}
	}

	ids := make([]string, len(out))
	for i, n := range out {
		ids[i] = n.UserID
	}
	profiles, err := s.authors(ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Author = profileOf(profiles, out[i].UserID)
	}
	return out, nil
}

// DeleteNote removes userID's own note. Other members' notes cannot be deleted.
func (s *Service) DeleteNote(userID, bookID string, chapter int) error {
	if _, err := s.requireMember(userID, bookID); err != nil {
		return err
	}
	if err := s.store.DeleteSharedNote(bookID, userID, chapter); err != nil {
		return err
	}
	s.notifier.Publish(bookID, Event{Type: EventNoteDeleted, BookID: bookID, UserID: userID, Chapter: &chapter})
	return nil
}
