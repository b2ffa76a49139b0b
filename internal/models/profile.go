package models

import (
	"time"

	"github.com/julianstephens/chapterly/internal/constants"
)

type Profile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Name is the display name, then the email, then a placeholder.
func (p *Profile) Name() string {
	if p == nil {
		return constants.AnonymousName
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.Email != "" {
		return p.Email
	}
	return constants.AnonymousName
}
