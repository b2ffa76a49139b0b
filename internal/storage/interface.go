package storage

import (
	"errors"
	"time"

	"github.com/julianstephens/chapterly/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an insert collides with a unique key.
	ErrConflict = errors.New("already exists")
)

// Provider is the relational store behind catalog, sharing and board features.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Profiles
	UpsertProfile(models.Profile) (models.Profile, error)
	GetProfile(userID string) (models.Profile, error)
	// GetProfiles returns the profiles that exist for userIDs, keyed by user ID.
	GetProfiles(userIDs []string) (map[string]models.Profile, error)

	// Book info
	AddBookInfo(models.BookInfo) error
	GetBookInfo(id string) (models.BookInfo, error)
	GetBookInfoByISBN(isbn string) (models.BookInfo, error)
	SearchBookInfo(query string) ([]models.BookInfo, error)

	// Chapter sets
	// GetChapterSets returns the sets for a book, most selected first.
	GetChapterSets(bookInfoID string) ([]models.ChapterSet, error)
	GetChapterSet(id string) (models.ChapterSet, error)
	GetChapterSetByHash(bookInfoID, hash string) (models.ChapterSet, error)
	// RecordChapterSetSelection inserts set with a count of 1, or adds exactly
	// one to the count of the stored set with the same book and hash, leaving
	// its chapter list untouched. The selection is logged for userID in the
	// same transaction. created reports whether a new row was inserted.
	RecordChapterSetSelection(set models.ChapterSet, userID string, at time.Time) (stored models.ChapterSet, created bool, err error)
	// GetChapterSetLog returns the selections of a set, newest first.
	GetChapterSetLog(chapterSetID string) ([]models.ChapterSelection, error)

	// Shared books
	AddSharedBook(models.SharedBook) error
	GetSharedBook(id string) (models.SharedBook, error)
	GetSharedBookByInviteCode(code string) (models.SharedBook, error)
	// GetSharedBooksForUser returns books the user created or joined, newest first.
	GetSharedBooksForUser(userID string) ([]models.SharedBook, error)

	// Members
	AddMember(models.BookMember) error
	GetMembers(bookID string) ([]models.BookMember, error)
	IsMember(bookID, userID string) (bool, error)

	// Shared notes
	SaveSharedNote(models.SharedNote) (models.SharedNote, error)
	GetSharedNotes(bookID string) ([]models.SharedNote, error)
	GetSharedNote(bookID, userID string, chapter int) (models.SharedNote, error)
	DeleteSharedNote(bookID, userID string, chapter int) error

	// Shared progress
	SetChapterProgress(bookID, userID string, chapter int, done bool, at time.Time) error
	GetProgress(bookID string) ([]models.ChapterProgress, error)

	// Board
	AddPost(models.Post) error
	GetPost(id string) (models.Post, error)
	GetPosts(bookID string) ([]models.Post, error)
	AddComment(models.Comment) error
	GetComments(postID string) ([]models.Comment, error)

	// Utils
	GetConfigPath() string
}
