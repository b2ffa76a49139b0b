package models

import (
	"fmt"
	"strings"
	"time"
)

// SharedBook is a book visible to every member holding its invite code.
type SharedBook struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author,omitempty"`
	Chapters      []string  `json:"chapters"`
	Parts         []Part    `json:"parts,omitempty"`
	Pages         int       `json:"pages"`
	TotalChapters int       `json:"total_chapters"`
	InviteCode    string    `json:"invite_code"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	MemberCount   int       `json:"member_count"`
}

func (b SharedBook) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if b.CreatedBy == "" {
		return fmt.Errorf("creator is required")
	}
	if b.Pages < 0 {
		return fmt.Errorf("pages must not be negative")
	}
	return nil
}

// AllChapters flattens parts into a single chapter list when parts are present.
func (b SharedBook) AllChapters() []string {
	return Book{Chapters: b.Chapters, Parts: b.Parts}.AllChapters()
}

type BookMember struct {
	ID       string    `json:"id"`
	BookID   string    `json:"book_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
	Profile  *Profile  `json:"profile,omitempty"`
}

// SharedNote is a member's note on one chapter of a shared book.
type SharedNote struct {
	ID            string    `json:"id"`
	BookID        string    `json:"book_id"`
	UserID        string    `json:"user_id"`
	ChapterNumber int       `json:"chapter_number"`
	ChapterTitle  string    `json:"chapter_title,omitempty"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Author        *Profile  `json:"author,omitempty"`
}

// ChapterProgress marks one chapter of a shared book done for one member.
type ChapterProgress struct {
	BookID        string    `json:"book_id"`
	UserID        string    `json:"user_id"`
	ChapterNumber int       `json:"chapter_number"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Post is a discussion board entry on a shared book.
type Post struct {
	ID            string    `json:"id"`
	BookID        string    `json:"book_id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	ChapterNumber *int      `json:"chapter_number,omitempty"`
	PageNumber    *int      `json:"page_number,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Author        *Profile  `json:"author,omitempty"`
}

func (p Post) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("content is required")
	}
	if p.ChapterNumber != nil && *p.ChapterNumber < 1 {
		return fmt.Errorf("chapter number must be at least 1")
	}
	if p.PageNumber != nil && *p.PageNumber < 1 {
		return fmt.Errorf("page number must be at least 1")
	}
	return nil
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    *Profile  `json:"author,omitempty"`
}
