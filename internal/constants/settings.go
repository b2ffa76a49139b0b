package constants

const (
	SettingTimezone      = "timezone"
	SettingDefaultUser   = "default_user"
	SettingWeekStartsMon = "week_starts_monday"

	DefaultTimezone      = "Local" // Use system local timezone by default
	DefaultWeekStartsMon = true
)

// Environment variables
const (
	EnvDB        = "CHAPTERLY_DB"
	EnvLocal     = "CHAPTERLY_LOCAL"
	EnvUser      = "CHAPTERLY_USER"
	EnvDebug     = "CHAPTERLY_DEBUG"
	EnvDBConn    = "CHAPTERLY_DB_CONNECTION"
	EnvAladinKey = "CHAPTERLY_ALADIN_KEY"
	EnvTestPG    = "CHAPTERLY_TEST_POSTGRES"
)
