package sqlstore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/storage"
)

const sharedBookColumns = `b.id, b.title, b.author, b.chapters_json, b.parts_json, b.pages, b.total_chapters,
	b.invite_code, b.created_by, b.created_at, b.updated_at,
	(SELECT COUNT(*) FROM book_members m WHERE m.book_id = b.id)`

func scanSharedBook(row scanner) (models.SharedBook, error) {
	var (
		b                       models.SharedBook
		chaptersJSON, partsJSON string
		createdAt, updatedAt    string
		err                     error
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &chaptersJSON, &partsJSON, &b.Pages, &b.TotalChapters,
		&b.InviteCode, &b.CreatedBy, &createdAt, &updatedAt, &b.MemberCount); err != nil {
		return models.SharedBook{}, err
	}
	if err := json.Unmarshal([]byte(chaptersJSON), &b.Chapters); err != nil {
		return models.SharedBook{}, fmt.Errorf("failed to decode chapters of shared book %s: %w", b.ID, err)
	}
	if err := json.Unmarshal([]byte(partsJSON), &b.Parts); err != nil {
		return models.SharedBook{}, fmt.Errorf("failed to decode parts of shared book %s: %w", b.ID, err)
	}
	if len(b.Parts) == 0 {
		b.Parts = nil
	}
	if b.CreatedAt, err = parseTS("created_at", createdAt); err != nil {
		return models.SharedBook{}, err
	}
	if b.UpdatedAt, err = parseTS("updated_at", updatedAt); err != nil {
		return models.SharedBook{}, err
	}
	return b, nil
}

func (s *Store) AddSharedBook(b models.SharedBook) error {
	if b.ID == "" {
		return fmt.Errorf("shared book id is required")
	}
	chapters := b.Chapters
	if chapters == nil {
		chapters = []string{}
	}
	parts := b.Parts
	if parts == nil {
		parts = []models.Part{}
	}
	chaptersJSON, err := toJSON(chapters)
	if err != nil {
		return err
	}
	partsJSON, err := toJSON(parts)
	if err != nil {
		return err
	}
	created := nowOr(b.CreatedAt)
	updated := b.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	_, err = s.exec(`
		INSERT INTO shared_books (id, title, author, chapters_json, parts_json, pages, total_chapters, invite_code, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Author, chaptersJSON, partsJSON, b.Pages, b.TotalChapters, b.InviteCode, b.CreatedBy, ts(created), ts(updated))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("shared book %s: %w", b.InviteCode, storage.ErrConflict)
		}
		return fmt.Errorf("failed to add shared book: %w", err)
	}
	return nil
}

func (s *Store) GetSharedBook(id string) (models.SharedBook, error) {
	b, err := scanSharedBook(s.queryRow("SELECT "+sharedBookColumns+" FROM shared_books b WHERE b.id = ?", id))
	if err != nil {
		return models.SharedBook{}, notFound(err, "shared book "+id)
	}
	return b, nil
}

func (s *Store) GetSharedBookByInviteCode(code string) (models.SharedBook, error) {
	b, err := scanSharedBook(s.queryRow("SELECT "+sharedBookColumns+" FROM shared_books b WHERE b.invite_code = ?", code))
	if err != nil {
		return models.SharedBook{}, notFound(err, "invite code "+code)
	}
	return b, nil
}

func (s *Store) GetSharedBooksForUser(userID string) ([]models.SharedBook, error) {
	rows, err := s.query(`
		SELECT `+sharedBookColumns+` FROM shared_books b
		WHERE b.created_by = ?
			OR EXISTS (SELECT 1 FROM book_members m WHERE m.book_id = b.id AND m.user_id = ?)
		ORDER BY b.created_at DESC`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SharedBook
	for rows.Next() {
		b, err := scanSharedBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AddMember returns storage.ErrConflict when the user already belongs to the book.
func (s *Store) AddMember(m models.BookMember) error {
	if m.ID == "" || m.BookID == "" || m.UserID == "" {
		return fmt.Errorf("member id, book and user are required")
	}
	res, err := s.exec(`
		INSERT INTO book_members (id, book_id, user_id, joined_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (book_id, user_id) DO NOTHING`,
		m.ID, m.BookID, m.UserID, ts(nowOr(m.JoinedAt)))
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("member %s of book %s: %w", m.UserID, m.BookID, storage.ErrConflict)
	}
	return nil
}

// GetMembers lists members in join order.
func (s *Store) GetMembers(bookID string) ([]models.BookMember, error) {
	rows, err := s.query(`
		SELECT id, book_id, user_id, joined_at FROM book_members
		WHERE book_id = ?
		ORDER BY joined_at ASC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BookMember
	for rows.Next() {
		var (
			m        models.BookMember
			joinedAt string
		)
		if err := rows.Scan(&m.ID, &m.BookID, &m.UserID, &joinedAt); err != nil {
			return nil, err
		}
		if m.JoinedAt, err = parseTS("joined_at", joinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) IsMember(bookID, userID string) (bool, error) {
	var count int
	if err := s.queryRow("SELECT COUNT(*) FROM book_members WHERE book_id = ? AND user_id = ?", bookID, userID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// isUniqueViolation matches both "UNIQUE constraint failed" (SQLite) and
// "duplicate key value violates unique constraint" (PostgreSQL).
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
