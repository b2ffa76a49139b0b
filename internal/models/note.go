package models

import (
	"fmt"
	"strings"
)

// ChapterNote is a personal note, at most one per (book, chapter).
type ChapterNote struct {
	BookTitle    string `json:"bookTitle"`
	BookAuthor   string `json:"bookAuthor,omitempty"`
	ChapterIndex int    `json:"chapterIndex"`
	ChapterTitle string `json:"chapterTitle,omitempty"`
	Content      string `json:"content"` // rich text, stored verbatim
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// LastTouched is UpdatedAt, falling back to CreatedAt.
func (n ChapterNote) LastTouched() string {
	if n.UpdatedAt != "" {
		return n.UpdatedAt
	}
	return n.CreatedAt
}

// SameChapter reports whether both notes key the same (book, chapter) pair.
func (n ChapterNote) SameChapter(o ChapterNote) bool {
	return n.BookTitle == o.BookTitle && n.ChapterIndex == o.ChapterIndex
}

func (n ChapterNote) Validate() error {
	if strings.TrimSpace(n.BookTitle) == "" {
		return fmt.Errorf("book title is required")
	}
	if n.ChapterIndex < 0 {
		return fmt.Errorf("chapter index must not be negative")
	}
	return nil
}
