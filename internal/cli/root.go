package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/chapterly/internal/backup"
	"github.com/julianstephens/chapterly/internal/catalog"
	"github.com/julianstephens/chapterly/internal/constants"
	"github.com/julianstephens/chapterly/internal/keyring"
	"github.com/julianstephens/chapterly/internal/library"
	"github.com/julianstephens/chapterly/internal/localstore"
	"github.com/julianstephens/chapterly/internal/logger"
	"github.com/julianstephens/chapterly/internal/models"
	"github.com/julianstephens/chapterly/internal/notes"
	"github.com/julianstephens/chapterly/internal/profile"
	"github.com/julianstephens/chapterly/internal/shared"
	"github.com/julianstephens/chapterly/internal/storage"
	"github.com/julianstephens/chapterly/internal/storage/postgres"
	"github.com/julianstephens/chapterly/internal/storage/sqlite"
	"github.com/julianstephens/chapterly/internal/utils"
)

// Context carries the stores and global flags every command runs with.
type Context struct {
	Store    storage.Provider
	Local    *localstore.Store
	UserFlag string
	Debug    bool

	storeLoaded bool
	localLoaded bool
}

// LoadStore opens the relational store once.
func (c *Context) LoadStore() error {
	if c.storeLoaded {
		return nil
	}
	if err := c.Store.Load(); err != nil {
		return err
	}
	c.storeLoaded = true
	return nil
}

// LoadLocal reads the personal library file once.
func (c *Context) LoadLocal() error {
	if c.localLoaded {
		return nil
	}
	if err := c.Local.Load(); err != nil {
		return err
	}
	c.localLoaded = true
	return nil
}

// Settings returns stored settings, or the defaults when the database has
// not been initialized. Personal commands work without it.
func (c *Context) Settings() models.Settings {
	defaults := models.Settings{Timezone: constants.DefaultTimezone, WeekStartsMonday: constants.DefaultWeekStartsMon}
	if err := c.LoadStore(); err != nil {
		logger.Debug("Using default settings", "error", err)
		return defaults
	}
	s, err := c.Store.GetSettings()
	if err != nil {
		logger.Debug("Using default settings", "error", err)
		return defaults
	}
	return s
}

// Location is the configured timezone.
func (c *Context) Location() *time.Location {
	tz := c.Settings().Timezone
	loc, err := utils.LoadLocation(tz)
	if err != nil {
		logger.Warn("Invalid timezone setting, using local time", "timezone", tz, "error", err)
		return time.Local
	}
	return loc
}

// User resolves the acting user.
func (c *Context) User() (string, error) {
	if err := c.LoadStore(); err != nil {
		if u := strings.TrimSpace(c.UserFlag); u != "" {
			return u, nil
		}
		if u := strings.TrimSpace(os.Getenv(constants.EnvUser)); u != "" {
			return u, nil
		}
		return "", err
	}
	return profile.New(c.Store).CurrentUser(c.UserFlag)
}

func (c *Context) Library() (*library.Service, error) {
	if err := c.LoadLocal(); err != nil {
		return nil, err
	}
	return library.New(c.Local, c.Location()), nil
}

func (c *Context) Notes() (*notes.Service, error) {
	if err := c.LoadLocal(); err != nil {
		return nil, err
	}
	return notes.New(c.Local), nil
}

func (c *Context) Catalog() (*catalog.Service, error) {
	if err := c.LoadStore(); err != nil {
		return nil, err
	}
	return catalog.New(c.Store), nil
}

func (c *Context) Shared() (*shared.Service, error) {
	if err := c.LoadStore(); err != nil {
		return nil, err
	}
	return shared.New(c.Store), nil
}

func (c *Context) Profiles() (*profile.Service, error) {
	if err := c.LoadStore(); err != nil {
		return nil, err
	}
	return profile.New(c.Store), nil
}

// Backups returns a manager for the SQLite database, or nil for PostgreSQL,
// which is backed up with its own tooling.
func (c *Context) Backups() *backup.Manager {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return nil
	}
	return backup.NewManager(c.Store.GetConfigPath(), backup.WithLocalPath(c.Local.Path()))
}

// PerformAutomaticBackup creates a backup and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	mgr := c.Backups()
	if mgr == nil {
		return
	}
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// OpenStore picks the relational store for config: a PostgreSQL connection
// string, the connection in CHAPTERLY_DB_CONNECTION or the keyring, or a
// SQLite file path. Connection strings given on the command line must not
// carry a password.
func OpenStore(config string, configIsDefault bool) (storage.Provider, error) {
	if postgres.IsConnString(config) {
		if _, err := postgres.ValidateConnString(config); err != nil {
			return nil, err
		}
		return postgres.New(config), nil
	}
	if configIsDefault {
		if conn := strings.TrimSpace(os.Getenv(constants.EnvDBConn)); conn != "" {
			return postgres.New(conn), nil
		}
		conn, err := keyring.GetConnectionString()
		switch {
		case err == nil:
			logger.Debug("Using connection string from keyring")
			return postgres.New(conn), nil
		case errors.Is(err, keyring.ErrNotFound), errors.Is(err, keyring.ErrKeyringUnavailable):
		default:
			logger.Debug("Keyring lookup failed", "error", err)
		}
	}
	path, err := utils.ExpandPath(config)
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(path), nil
}

// ChapterIndex turns the 1-based chapter number users type into an index.
func ChapterIndex(n int) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("invalid chapter %d (chapters are numbered from 1)", n)
	}
	return n - 1, nil
}

// ReadText returns inline text, or the contents of file when it is set. A
// file of "-" reads standard input.
func ReadText(inline, file string) (string, error) {
	if file == "" {
		return inline, nil
	}
	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		path, perr := utils.ExpandPath(file)
		if perr != nil {
			return "", perr
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", file, err)
	}
	return string(data), nil
}
