package sqlstore

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/chapterly/internal/models"
)

const sharedNoteColumns = "id, book_id, user_id, chapter_number, chapter_title, content, created_at, updated_at"

func scanSharedNote(row scanner) (models.SharedNote, error) {
	var (
		n                    models.SharedNote
		createdAt, updatedAt string
		err                  error
	)
	if err := row.Scan(&n.ID, &n.BookID, &n.UserID, &n.ChapterNumber, &n.ChapterTitle, &n.Content, &createdAt, &updatedAt); err != nil {
		return models.SharedNote{}, err
	}
	if n.CreatedAt, err = parseTS("created_at", createdAt); err != nil {
		return models.SharedNote{}, err
	}
	if n.UpdatedAt, err = parseTS("updated_at", updatedAt); err != nil {
		return models.SharedNote{}, err
	}
	return n, nil
}

// SaveSharedNote upserts the note for (book, user, chapter) and returns the stored row.
func (s *Store) SaveSharedNote(n models.SharedNote) (models.SharedNote, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	now := nowOr(n.UpdatedAt)
	created := n.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err := s.exec(`
		INSERT INTO shared_chapter_notes (id, book_id, user_id, chapter_number, chapter_title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (book_id, user_id, chapter_number) DO UPDATE SET
			chapter_title = excluded.chapter_title,
			content = excluded.content,
			updated_at = excluded.updated_at`,
		n.ID, n.BookID, n.UserID, n.ChapterNumber, n.ChapterTitle, n.Content, ts(created), ts(now))
	if err != nil {
		return models.SharedNote{}, fmt.Errorf("failed to save shared note: %w", err)
	}
	return s.GetSharedNote(n.BookID, n.UserID, n.ChapterNumber)
}

// GetSharedNotes lists every member's notes for a book by chapter, then by
// last update.
func (s *Store) GetSharedNotes(bookID string) ([]models.SharedNote, error) {
	rows, err := s.query(`
		SELECT `+sharedNoteColumns+` FROM shared_chapter_notes
		WHERE book_id = ?
		ORDER BY chapter_number ASC, updated_at DESC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SharedNote
	for rows.Next() {
		n, err := scanSharedNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) GetSharedNote(bookID, userID string, chapter int) (models.SharedNote, error) {
	n, err := scanSharedNote(s.queryRow(
		"SELECT "+sharedNoteColumns+" FROM shared_chapter_notes WHERE book_id = ? AND user_id = ? AND chapter_number = ?",
		bookID, userID, chapter))
	if err != nil {
		return models.SharedNote{}, notFound(err, fmt.Sprintf("note for chapter %d", chapter))
	}
	return n, nil
}

func (s *Store) DeleteSharedNote(bookID, userID string, chapter int) error {
	res, err := s.exec("DELETE FROM shared_chapter_notes WHERE book_id = ? AND user_id = ? AND chapter_number = ?", bookID, userID, chapter)
	if err != nil {
		return fmt.Errorf("failed to delete shared note: %w", err)
	}
	return requireAffected(res, fmt.Sprintf("note for chapter %d", chapter))
}

// SetChapterProgress marks or clears one chapter for one member. Marking an
// already marked chapter keeps the original completion time.
func (s *Store) SetChapterProgress(bookID, userID string, chapter int, done bool, at time.Time) error {
	if !done {
		_, err := s.exec("DELETE FROM shared_book_progress WHERE book_id = ? AND user_id = ? AND chapter_number = ?", bookID, userID, chapter)
		if err != nil {
			return fmt.Errorf("failed to clear chapter progress: %w", err)
		}
		return nil
	}
	_, err := s.exec(`
		INSERT INTO shared_book_progress (id, book_id, user_id, chapter_number, completed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (book_id, user_id, chapter_number) DO NOTHING`,
		uuid.New().String(), bookID, userID, chapter, ts(nowOr(at)))
	if err != nil {
		return fmt.Errorf("failed to record chapter progress: %w", err)
	}
	return nil
}

func (s *Store) GetProgress(bookID string) ([]models.ChapterProgress, error) {
	rows, err := s.query(`
		SELECT book_id, user_id, chapter_number, completed_at FROM shared_book_progress
		WHERE book_id = ?
		ORDER BY user_id, chapter_number`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChapterProgress
	for rows.Next() {
		var (
			p           models.ChapterProgress
			completedAt string
		)
		if err := rows.Scan(&p.BookID, &p.UserID, &p.ChapterNumber, &completedAt); err != nil {
			return nil, err
		}
		if p.CompletedAt, err = parseTS("completed_at", completedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
