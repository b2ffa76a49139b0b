// Package shared implements books read together: invite codes, membership,
// per-member chapter progress, shared notes and the discussion board.
package shared

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/chapterly/internal/chapters"
	"github.com/julianstephens/chapterly/internal/constants"
	apperrors "github.com/julianstephens/chapterly/internal/errors"
	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/storage"
)

var (
	// ErrAlreadyMember is returned when joining a book twice.
	ErrAlreadyMember = errors.New("already a member")
	// ErrForbidden is returned when a non-member touches a shared book.
	ErrForbidden = errors.New("not a member of this book")
)

const inviteCodeAttempts = 5

type Service struct {
	store    storage.Provider
	notifier Notifier
	now      func() time.Time
	newCode  func() (string, error)
}

func New(store storage.Provider) *Service {
	return &Service{
		store:    store,
		notifier: nopNotifier{},
		now:      time.Now,
		newCode:  NewInviteCode,
	}
}

// SetNotifier routes change events to n, typically the board websocket hub.
func (s *Service) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	s.notifier = n
}

// NewInviteCode returns a random code drawn from an alphabet without the
// easily confused characters 0, O, 1 and I.
func NewInviteCode() (string, error) {
	alphabet := constants.InviteCodeAlphabet
	limit := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(constants.InviteCodeLength)
	for i := 0; i < constants.InviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeInviteCode trims and uppercases a code as typed by a user.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewSharedBook is the user input for creating a shared book.
type NewSharedBook struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Pages  int    `json:"pages"`
	// ChapterText is one chapter per line; lines starting with "#" open a part.
	ChapterText string `json:"chapters"`
}

// Create stores a shared book with a fresh invite code and makes the creator
// its first member.
func (s *Service) Create(userID string, in NewSharedBook) (models.SharedBook, error) {
	if strings.TrimSpace(userID) == "" {
		return models.SharedBook{}, apperrors.Invalid("user", "is required")
	}
	parts, flat := chapters.ParseParts(in.ChapterText)
	now := s.now()
	book := models.SharedBook{
		ID:            uuid.New().String(),
		Title:         strings.TrimSpace(in.Title),
		Author:        strings.TrimSpace(in.Author),
		Chapters:      flat,
		Parts:         parts,
		Pages:         in.Pages,
		TotalChapters: chapters.TotalChapters(parts, flat),
		CreatedBy:     userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := book.Validate(); err != nil {
		return models.SharedBook{}, apperrors.Invalid("shared book", err.Error())
	}

	var err error
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		if book.InviteCode, err = s.newCode(); err != nil {
			return models.SharedBook{}, err
		}
		err = s.store.AddSharedBook(book)
		if !errors.Is(err, storage.ErrConflict) {
			break
		}
		logger.Debug("Invite code collision, retrying", "attempt", attempt+1)
	}
	if err != nil {
		return models.SharedBook{}, err
	}

	member := models.BookMember{ID: uuid.New().String(), BookID: book.ID, UserID: userID, JoinedAt: now}
	if err := s.store.AddMember(member); err != nil {
		// The creator can still reach the book; only the member list is short.
		logger.Warn("Shared book created but creator was not added as a member", "book_id", book.ID, "error", err)
	} else {
		book.MemberCount = 1
	}
	logger.Info("Created shared book", "book_id", book.ID, "title", book.Title, "invite_code", book.InviteCode)
	return book, nil
}

// Join adds userID to the book with the given invite code.
func (s *Service) Join(userID, code string) (models.SharedBook, error) {
	if strings.TrimSpace(userID) == "" {
		return models.SharedBook{}, apperrors.Invalid("user", "is required")
	}
	code = NormalizeInviteCode(code)
	if code == "" {
		return models.SharedBook{}, apperrors.Invalid("invite code", "is required")
	}
	book, err := s.store.GetSharedBookByInviteCode(code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.SharedBook{}, fmt.Errorf("no shared book uses invite code %s: %w", code, err)
		}
		return models.SharedBook{}, err
	}

	member := models.BookMember{ID: uuid.New().String(), BookID: book.ID, UserID: userID, JoinedAt: s.now()}
	if err := s.store.AddMember(member); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return book, fmt.Errorf("%w of %q", ErrAlreadyMember, book.Title)
		}
		return models.SharedBook{}, err
	}
	book.MemberCount++
	logger.Info("Joined shared book", "book_id", book.ID, "user_id", userID)
	s.notifier.Publish(book.ID, Event{Type: EventMemberJoined, BookID: book.ID, UserID: userID})
	return book, nil
}

// List returns the books userID created or joined, newest first.
func (s *Service) List(userID string) ([]models.SharedBook, error) {
	return s.store.GetSharedBooksForUser(userID)
}

// Detail is a shared book with its members.
type Detail struct {
	Book    models.SharedBook   `json:"book"`
	Members []models.BookMember `json:"members"`
}

func (s *Service) Detail(userID, bookID string) (Detail, error) {
	book, err := s.requireMember(userID, bookID)
	if err != nil {
		return Detail{}, err
	}
	members, err := s.store.GetMembers(bookID)
	if err != nil {
		return Detail{}, err
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	profiles, err := s.store.GetProfiles(ids)
	if err != nil {
		return Detail{}, err
	}
	for i := range members {
		members[i].Profile = profileOf(profiles, members[i].UserID)
	}
	return Detail{Book: book, Members: members}, nil
}

// requireMember loads the book and checks that userID created or joined it.
func (s *Service) requireMember(userID, bookID string) (models.SharedBook, error) {
	book, err := s.store.GetSharedBook(bookID)
	if err != nil {
		return models.SharedBook{}, err
	}
	if book.CreatedBy == userID {
		return book, nil
	}
	ok, err := s.store.IsMember(bookID, userID)
	if err != nil {
		return models.SharedBook{}, err
	}
	if !ok {
		return models.SharedBook{}, fmt.Errorf("%w: %q", ErrForbidden, book.Title)
	}
	return book, nil
}

func (s *Service) checkChapter(book models.SharedBook, chapter int) error {
	if chapter < 0 || chapter >= book.TotalChapters {
		return apperrors.Invalid("chapter", fmt.Sprintf("must be between 1 and %d", book.TotalChapters))
	}
	return nil
}

// authors looks up profiles for a set of user IDs.
func (s *Service) authors(userIDs []string) (map[string]models.Profile, error) {
	seen := make(map[string]bool, len(userIDs))
	var ids []string
	for _, id := range userIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return s.store.GetProfiles(ids)
}

func profileOf(profiles map[string]models.Profile, userID string) *models.Profile {
	p, ok := profiles[userID]
	if !ok {
		return nil
	}
	return &p
}
