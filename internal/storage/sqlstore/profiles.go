package sqlstore

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/chapterly/internal/models"
)

const profileColumns = "id, user_id, display_name, email, avatar_url, created_at, updated_at"

func scanProfile(row scanner) (models.Profile, error) {
	var (
		p                    models.Profile
		createdAt, updatedAt string
		err                  error
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.DisplayName, &p.Email, &p.AvatarURL, &createdAt, &updatedAt); err != nil {
		return models.Profile{}, err
	}
	if p.CreatedAt, err = parseTS("created_at", createdAt); err != nil {
		return models.Profile{}, err
	}
	if p.UpdatedAt, err = parseTS("updated_at", updatedAt); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

// UpsertProfile creates the user's profile or replaces its editable fields.
func (s *Store) UpsertProfile(p models.Profile) (models.Profile, error) {
	if p.UserID == "" {
		return models.Profile{}, fmt.Errorf("profile user id is required")
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	_, err := s.exec(`
		INSERT INTO profiles (id, user_id, display_name, email, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = excluded.display_name,
			email = excluded.email,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at`,
		p.ID, p.UserID, p.DisplayName, p.Email, p.AvatarURL, ts(nowOr(p.CreatedAt)), ts(now))
	if err != nil {
		return models.Profile{}, fmt.Errorf("failed to save profile: %w", err)
	}
	return s.GetProfile(p.UserID)
}

func (s *Store) GetProfile(userID string) (models.Profile, error) {
	p, err := scanProfile(s.queryRow("SELECT "+profileColumns+" FROM profiles WHERE user_id = ?", userID))
	if err != nil {
		return models.Profile{}, notFound(err, "profile "+userID)
	}
	return p, nil
}

func (s *Store) GetProfiles(userIDs []string) (map[string]models.Profile, error) {
	out := make(map[string]models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}
	rows, err := s.query("SELECT "+profileColumns+" FROM profiles WHERE user_id IN ("+placeholders(len(userIDs))+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out[p.UserID] = p
	}
	return out, rows.Err()
}
