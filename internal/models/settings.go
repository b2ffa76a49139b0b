package models

// Settings represents application-wide settings
type Settings struct {
	Timezone         string `json:"timezone"`           // IANA timezone name or "Local"
	DefaultUser      string `json:"default_user"`       // acting user when --user is not given
	WeekStartsMonday bool   `json:"week_starts_monday"` // calendar week used by weekly stats
}
