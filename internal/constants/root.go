package constants

// PlanMode identifies which field drove the last study-plan edit
type PlanMode string

// ShelfKind identifies which list a personal book belongs to
type ShelfKind string

const (
	AppName            = "chapterly"
	DefaultKeyringUser = "database-connection"
	AladinKeyringUser  = "aladin-ttb-key"
	DefaultConfigPath  = "~/.config/chapterly/chapterly.db"
	DefaultLocalPath   = "~/.config/chapterly/local.json"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimestampFormat is used for every persisted timestamp
	TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "chapterly-"
	BackupFileSuffix = ".db"

	// Local store keys. These match the keys the web client kept in local storage
	// so exported browser data can be dropped in as-is.
	LocalKeyBooks    = "dashboardBooks"
	LocalKeyNotes    = "chapterNotes"
	LocalKeyWishlist = "wishlistBooks"

	// Plan modes
	PlanModeDate    PlanMode = "date"
	PlanModeChapter PlanMode = "chapter"
	PlanModePage    PlanMode = "page"

	// Shelves
	ShelfReading   ShelfKind = "reading"
	ShelfCompleted ShelfKind = "completed"
	ShelfWishlist  ShelfKind = "wishlist"

	// Shared books
	InviteCodeLength   = 8
	InviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// Stats
	StreakLookbackDays  = 365
	WeeklyTargetPerBook = 7
	MinWeeklyTarget     = 7
	MinMonthlyTarget    = 30

	// AnonymousName is shown for members without a profile
	AnonymousName = "anonymous"

	// Board hub
	HubSendBuffer = 16
)
