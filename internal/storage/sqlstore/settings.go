package sqlstore

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/chapterly/internal/constants"
	"github.com/julianstephens/chapterly/internal/models"
)

func (s *Store) GetSettings() (models.Settings, error) {
	rows, err := s.query("SELECT key, value FROM settings")
	if err != nil {
		return models.Settings{}, err
	}
	defer rows.Close()

	settings := models.Settings{}
	count := 0
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, err
		}
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingDefaultUser:
			settings.DefaultUser = value
		case constants.SettingWeekStartsMon:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return models.Settings{}, fmt.Errorf("parsing %s: %w", key, err)
			}
			settings.WeekStartsMonday = b
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return models.Settings{}, err
	}

	if count == 0 {
		return models.Settings{}, fmt.Errorf("settings not found")
	}
	return settings, nil
}

func (s *Store) SaveSettings(settings models.Settings) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(s.Rebind("INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value"))
	if err != nil {
		return err
	}
	defer stmt.Close()

	values := [][2]string{
		{constants.SettingTimezone, settings.Timezone},
		{constants.SettingDefaultUser, settings.DefaultUser},
		{constants.SettingWeekStartsMon, strconv.FormatBool(settings.WeekStartsMonday)},
	}
	for _, kv := range values {
		if _, err := stmt.Exec(kv[0], kv[1]); err != nil {
			return fmt.Errorf("saving setting %s: %w", kv[0], err)
		}
	}

	return tx.Commit()
}

// DefaultSettings is what Init writes into a fresh database.
func DefaultSettings() models.Settings {
	return models.Settings{
		Timezone:         constants.DefaultTimezone,
		WeekStartsMonday: constants.DefaultWeekStartsMon,
	}
}
