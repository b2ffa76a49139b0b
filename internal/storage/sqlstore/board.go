package sqlstore

import (
	"database/sql"
	"fmt"

	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/storage"
)

const postColumns = "id, book_id, user_id, title, content, chapter_number, page_number, created_at, updated_at"

func scanPost(row scanner) (models.Post, error) {
	var (
		p                    models.Post
		chapter, page        sql.NullInt64
		createdAt, updatedAt string
		err                  error
	)
	if err := row.Scan(&p.ID, &p.BookID, &p.UserID, &p.Title, &p.Content, &chapter, &page, &createdAt, &updatedAt); err != nil {
		return models.Post{}, err
	}
	p.ChapterNumber = intPtr(chapter)
	p.PageNumber = intPtr(page)
	if p.CreatedAt, err = parseTS("created_at", createdAt); err != nil {
		return models.Post{}, err
	}
	if p.UpdatedAt, err = parseTS("updated_at", updatedAt); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

func (s *Store) AddPost(p models.Post) error {
	if p.ID == "" {
		return fmt.Errorf("post id is required")
	}
	created := nowOr(p.CreatedAt)
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	_, err := s.exec(`
		INSERT INTO shared_book_posts (id, book_id, user_id, title, content, chapter_number, page_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.BookID, p.UserID, p.Title, p.Content, nullInt(p.ChapterNumber), nullInt(p.PageNumber), ts(created), ts(updated))
	if err != nil {
		return fmt.Errorf("failed to add post: %w", err)
	}
	return nil
}

func (s *Store) GetPost(id string) (models.Post, error) {
	p, err := scanPost(s.queryRow("SELECT "+postColumns+" FROM shared_book_posts WHERE id = ?", id))
	if err != nil {
		return models.Post{}, notFound(err, "post "+id)
	}
	return p, nil
}

// GetPosts lists a book's posts, newest first.
func (s *Store) GetPosts(bookID string) ([]models.Post, error) {
	rows, err := s.query("SELECT "+postColumns+" FROM shared_book_posts WHERE book_id = ? ORDER BY created_at DESC", bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) AddComment(c models.Comment) error {
	if c.ID == "" {
		return fmt.Errorf("comment id is required")
	}
	_, err := s.exec(`
		INSERT INTO shared_book_comments (id, post_id, user_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.PostID, c.UserID, c.Content, ts(nowOr(c.CreatedAt)))
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}

// GetComments lists a post's comments, oldest first.
func (s *Store) GetComments(postID string) ([]models.Comment, error) {
	rows, err := s.query(`
		SELECT id, post_id, user_id, content, created_at FROM shared_book_comments
		WHERE post_id = ?
		ORDER BY created_at ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Comment
	for rows.Next() {
		var (
			c         models.Comment
			createdAt string
		)
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &createdAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTS("created_at", createdAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}
