// Package profile manages user identity: who the current user is and how
// they are shown to other members.
package profile

import (
	"errors"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/chapterly/internal/constants"
	apperrors "github.com/julianstephens/chapterly/internal/errors"
	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/storage"
	"github.com/julianstephens/chapterly/internal/validation"
)

// ErrNoUser is returned when no user is selected.
var ErrNoUser = errors.New("no user selected; pass --user, set " + constants.EnvUser + " or run 'chapterly profile set --default'")

type Service struct {
	store storage.Provider
}

func New(store storage.Provider) *Service {
	return &Service{store: store}
}

// CurrentUser picks the acting user: the explicit flag value, then the
// environment, then the default saved in settings.
func (s *Service) CurrentUser(flagValue string) (string, error) {
	if u := strings.TrimSpace(flagValue); u != "" {
		return u, nil
	}
	if u := strings.TrimSpace(os.Getenv(constants.EnvUser)); u != "" {
		return u, nil
	}
	settings, err := s.store.GetSettings()
	if err != nil {
		return "", err
	}
	if settings.DefaultUser == "" {
		return "", ErrNoUser
	}
	return settings.DefaultUser, nil
}

// Update is the editable part of a profile. Nil fields are left unchanged.
type Update struct {
	DisplayName *string
	Email       *string
	AvatarURL   *string
}

// Set creates or updates the profile of userID.
func (s *Service) Set(userID string, u Update) (models.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return models.Profile{}, apperrors.Invalid("user", "is required")
	}
	p, err := s.store.GetProfile(userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return models.Profile{}, err
		}
		p = models.Profile{ID: uuid.New().String(), UserID: userID}
	}
	if u.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*u.DisplayName)
	}
	if u.Email != nil {
		email := strings.TrimSpace(*u.Email)
		if err := validation.Email(email); err != nil {
			return models.Profile{}, err
		}
		p.Email = email
	}
	if u.AvatarURL != nil {
		p.AvatarURL = strings.TrimSpace(*u.AvatarURL)
	}
	return s.store.UpsertProfile(p)
}

// Get returns the stored profile, or an empty one carrying only the user ID.
func (s *Service) Get(userID string) (models.Profile, error) {
	p, err := s.store.GetProfile(userID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Profile{UserID: userID}, nil
	}
	return p, err
}

// SetDefault saves userID as the user picked when none is given.
func (s *Service) SetDefault(userID string) error {
	settings, err := s.store.GetSettings()
	if err != nil {
		return err
	}
	settings.DefaultUser = userID
	return s.store.SaveSettings(settings)
}
