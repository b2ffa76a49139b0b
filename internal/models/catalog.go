package models

import "time"

// BookInfo is the shared bibliographic record chapter sets hang off.
type BookInfo struct {
	ID        string    `json:"id"`
	ISBN      string    `json:"isbn,omitempty"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	Publisher string    `json:"publisher,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChapterSet is a deduplicated chapter list for a book with its vote count.
type ChapterSet struct {
	ID             string    `json:"id"`
	BookInfoID     string    `json:"book_info_id"`
	NormalizedHash string    `json:"normalized_hash"`
	OriginalInput  string    `json:"original_input"`
	ChapterList    []string  `json:"chapter_list"`
	SelectionCount int       `json:"selection_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ChapterSelection records one user picking one chapter set.
type ChapterSelection struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ChapterSetID string    `json:"chapter_set_id"`
	SelectedAt   time.Time `json:"selected_at"`
}
