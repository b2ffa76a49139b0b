package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/storage"
)

const bookInfoColumns = "id, isbn, title, author, publisher, created_at, updated_at"

func scanBookInfo(row scanner) (models.BookInfo, error) {
	var (
		b                    models.BookInfo
		isbn                 sql.NullString
		createdAt, updatedAt string
		err                  error
	)
	if err := row.Scan(&b.ID, &isbn, &b.Title, &b.Author, &b.Publisher, &createdAt, &updatedAt); err != nil {
		return models.BookInfo{}, err
	}
	b.ISBN = isbn.String
	if b.CreatedAt, err = parseTS("created_at", createdAt); err != nil {
		return models.BookInfo{}, err
	}
	if b.UpdatedAt, err = parseTS("updated_at", updatedAt); err != nil {
		return models.BookInfo{}, err
	}
	return b, nil
}

func (s *Store) AddBookInfo(b models.BookInfo) error {
	if b.ID == "" {
		return fmt.Errorf("book info id is required")
	}
	created := nowOr(b.CreatedAt)
	updated := b.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	_, err := s.exec(`
		INSERT INTO book_info (id, isbn, title, author, publisher, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, nullString(b.ISBN), b.Title, b.Author, b.Publisher, ts(created), ts(updated))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("book info with isbn %s: %w", b.ISBN, storage.ErrConflict)
		}
		return fmt.Errorf("failed to add book info: %w", err)
	}
	return nil
}

func (s *Store) GetBookInfo(id string) (models.BookInfo, error) {
	b, err := scanBookInfo(s.queryRow("SELECT "+bookInfoColumns+" FROM book_info WHERE id = ?", id))
	if err != nil {
		return models.BookInfo{}, notFound(err, "book info "+id)
	}
	return b, nil
}

func (s *Store) GetBookInfoByISBN(isbn string) (models.BookInfo, error) {
	b, err := scanBookInfo(s.queryRow("SELECT "+bookInfoColumns+" FROM book_info WHERE isbn = ?", isbn))
	if err != nil {
		return models.BookInfo{}, notFound(err, "book info with isbn "+isbn)
	}
	return b, nil
}

// SearchBookInfo matches the query against title and author (case-insensitive)
// or the exact ISBN.
func (s *Store) SearchBookInfo(query string) ([]models.BookInfo, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	rows, err := s.query(`
		SELECT `+bookInfoColumns+` FROM book_info
		WHERE LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR isbn = ?
		ORDER BY title
		LIMIT 50`, pattern, pattern, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BookInfo
	for rows.Next() {
		b, err := scanBookInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

const chapterSetColumns = "id, book_info_id, normalized_hash, original_input, chapter_list_json, selection_count, created_at, updated_at"

func scanChapterSet(row scanner) (models.ChapterSet, error) {
	var (
		cs                   models.ChapterSet
		listJSON             string
		createdAt, updatedAt string
		err                  error
	)
	if err := row.Scan(&cs.ID, &cs.BookInfoID, &cs.NormalizedHash, &cs.OriginalInput, &listJSON, &cs.SelectionCount, &createdAt, &updatedAt); err != nil {
		return models.ChapterSet{}, err
	}
	if err := json.Unmarshal([]byte(listJSON), &cs.ChapterList); err != nil {
		return models.ChapterSet{}, fmt.Errorf("failed to decode chapter list of set %s: %w", cs.ID, err)
	}
	if cs.CreatedAt, err = parseTS("created_at", createdAt); err != nil {
		return models.ChapterSet{}, err
	}
	if cs.UpdatedAt, err = parseTS("updated_at", updatedAt); err != nil {
		return models.ChapterSet{}, err
	}
	return cs, nil
}

func (s *Store) GetChapterSets(bookInfoID string) ([]models.ChapterSet, error) {
	rows, err := s.query(`
		SELECT `+chapterSetColumns+` FROM chapter_set
		WHERE book_info_id = ?
		ORDER BY selection_count DESC, created_at ASC`, bookInfoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChapterSet
	for rows.Next() {
		cs, err := scanChapterSet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (s *Store) GetChapterSet(id string) (models.ChapterSet, error) {
	cs, err := scanChapterSet(s.queryRow("SELECT "+chapterSetColumns+" FROM chapter_set WHERE id = ?", id))
	if err != nil {
		return models.ChapterSet{}, notFound(err, "chapter set "+id)
	}
	return cs, nil
}

func (s *Store) GetChapterSetByHash(bookInfoID, hash string) (models.ChapterSet, error) {
	cs, err := scanChapterSet(s.queryRow("SELECT "+chapterSetColumns+" FROM chapter_set WHERE book_info_id = ? AND normalized_hash = ?", bookInfoID, hash))
	if err != nil {
		return models.ChapterSet{}, notFound(err, "chapter set "+hash)
	}
	return cs, nil
}

func (s *Store) RecordChapterSetSelection(set models.ChapterSet, userID string, at time.Time) (models.ChapterSet, bool, error) {
	if set.BookInfoID == "" || set.NormalizedHash == "" {
		return models.ChapterSet{}, false, fmt.Errorf("chapter set needs a book and a hash")
	}
	if set.ID == "" {
		set.ID = uuid.New().String()
	}
	listJSON, err := toJSON(set.ChapterList)
	if err != nil {
		return models.ChapterSet{}, false, fmt.Errorf("failed to encode chapter list: %w", err)
	}
	at = nowOr(at)

	tx, err := s.db.Begin()
	if err != nil {
		return models.ChapterSet{}, false, err
	}
	defer tx.Rollback()

	// The conflict branch only touches the counter, so the first submitter's
	// original text and chapter list are kept.
	_, err = tx.Exec(s.Rebind(`
		INSERT INTO chapter_set (id, book_info_id, normalized_hash, original_input, chapter_list_json, selection_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (book_info_id, normalized_hash) DO UPDATE SET
			selection_count = chapter_set.selection_count + 1,
			updated_at = excluded.updated_at`),
		set.ID, set.BookInfoID, set.NormalizedHash, set.OriginalInput, listJSON, ts(at), ts(at))
	if err != nil {
		return models.ChapterSet{}, false, fmt.Errorf("failed to record chapter set: %w", err)
	}

	stored, err := scanChapterSet(tx.QueryRow(s.Rebind("SELECT "+chapterSetColumns+" FROM chapter_set WHERE book_info_id = ? AND normalized_hash = ?"), set.BookInfoID, set.NormalizedHash))
	if err != nil {
		return models.ChapterSet{}, false, fmt.Errorf("failed to read back chapter set: %w", err)
	}

	if _, err := tx.Exec(s.Rebind("INSERT INTO user_chapter_log (id, user_id, chapter_set_id, selected_at) VALUES (?, ?, ?, ?)"),
		uuid.New().String(), userID, stored.ID, ts(at)); err != nil {
		return models.ChapterSet{}, false, fmt.Errorf("failed to log chapter set selection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.ChapterSet{}, false, err
	}
	return stored, stored.ID == set.ID, nil
}

func (s *Store) GetChapterSetLog(chapterSetID string) ([]models.ChapterSelection, error) {
	rows, err := s.query(`
		SELECT id, user_id, chapter_set_id, selected_at FROM user_chapter_log
		WHERE chapter_set_id = ?
		ORDER BY selected_at DESC`, chapterSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChapterSelection
	for rows.Next() {
		var (
			sel        models.ChapterSelection
			selectedAt string
		)
		if err := rows.Scan(&sel.ID, &sel.UserID, &sel.ChapterSetID, &selectedAt); err != nil {
			return nil, err
		}
		if sel.SelectedAt, err = parseTS("selected_at", selectedAt); err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, rows.Err()
}
