// Package backup snapshots the SQLite catalog database together with the
// local library file, and rotates and restores those snapshots.
package backup

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/chapterly/internal/constants"
	"github.com/julianstephens/chapterly/internal/logger"
)

// LocalSuffix marks the library file saved next to a database snapshot.
const LocalSuffix = ".json"

// stampLayouts are tried in order when reading a snapshot name.
var stampLayouts = []string{"20060102-150405", "20060102-1504"}

var snapshotName = regexp.MustCompile(`^` + regexp.QuoteMeta(constants.BackupFilePrefix) +
	`(\d{8}-\d{4}(?:\d{2})?)(?:-(\d+))?` + regexp.QuoteMeta(constants.BackupFileSuffix) + `$`)

// Info describes one snapshot.
type Info struct {
	Path      string // database snapshot
	LocalPath string // library snapshot, empty when none was taken
	Timestamp time.Time
	Size      int64
}

// Manager handles backup operations
type Manager struct {
	dbPath    string
	localPath string
	backupDir string
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLocalPath includes the local library file in every snapshot.
func WithLocalPath(path string) Option {
	return func(m *Manager) { m.localPath = path }
}

// WithClock overrides the time source used to name snapshots.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager keeping snapshots in a backups directory
// next to dbPath.
func NewManager(dbPath string, opts ...Option) *Manager {
	m := &Manager{
		dbPath:    dbPath,
		backupDir: filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the backup directory path
func (m *Manager) Dir() string {
	return m.backupDir
}

// Create takes a snapshot and rotates old ones.
func (m *Manager) Create() (Info, error) {
	return m.create(true)
}

func (m *Manager) create(rotate bool) (Info, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return Info{}, fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.dbPath); err != nil {
		return Info{}, fmt.Errorf("database does not exist: %s", m.dbPath)
	}

	base, err := m.uniqueBase()
	if err != nil {
		return Info{}, err
	}
	info := Info{Path: filepath.Join(m.backupDir, base+constants.BackupFileSuffix)}

	if err := snapshotDatabase(m.dbPath, info.Path); err != nil {
		return Info{}, fmt.Errorf("failed to backup database: %w", err)
	}
	if m.localPath != "" {
		if _, err := os.Stat(m.localPath); err == nil {
			info.LocalPath = filepath.Join(m.backupDir, base+LocalSuffix)
			if err := copyFile(m.localPath, info.LocalPath); err != nil {
				return Info{}, fmt.Errorf("failed to backup library file: %w", err)
			}
		}
	}
	if st, err := os.Stat(info.Path); err == nil {
		info.Size = st.Size()
	}
	info.Timestamp = m.now()
	logger.Info("Backup created", "path", info.Path, "library", info.LocalPath != "")

	if rotate {
		if err := m.rotate(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}
	return info, nil
}

// uniqueBase names a snapshot after the current minute, adding seconds and
// then a counter when that name is taken.
func (m *Manager) uniqueBase() (string, error) {
	now := m.now()
	taken := func(base string) bool {
		_, err := os.Stat(filepath.Join(m.backupDir, base+constants.BackupFileSuffix))
		return err == nil
	}
	base := constants.BackupFilePrefix + now.Format(stampLayouts[1])
	if !taken(base) {
		return base, nil
	}
	base = constants.BackupFilePrefix + now.Format(stampLayouts[0])
	if !taken(base) {
		return base, nil
	}
	for i := 1; i <= 100; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken(candidate) {
			return candidate, nil
		}
	}
	return "", errors.New("failed to generate unique backup filename")
}

func snapshotDatabase(src, dest string) error {
	db, err := sql.Open("sqlite", src+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(new(int)); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	if _, err := db.Exec("VACUUM INTO ?", dest); err != nil {
		logger.Debug("VACUUM INTO failed, copying file", "error", err)
		_ = db.Close()
		return copyFile(src, dest)
	}
	return nil
}

// List returns snapshots sorted newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if errors.Is(err, os.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := snapshotName.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		ts, ok := parseStamp(match[1])
		if !ok {
			continue
		}
		path := filepath.Join(m.backupDir, entry.Name())
		st, err := os.Stat(path)
		if err != nil {
			continue
		}
		info := Info{Path: path, Timestamp: ts, Size: st.Size()}
		local := strings.TrimSuffix(path, constants.BackupFileSuffix) + LocalSuffix
		if _, err := os.Stat(local); err == nil {
			info.LocalPath = local
		}
		backups = append(backups, info)
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func parseStamp(s string) (time.Time, bool) {
	for _, layout := range stampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
		if backups[i].LocalPath != "" {
			if err := os.Remove(backups[i].LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to remove old backup %s: %w", backups[i].LocalPath, err)
			}
		}
	}
	return nil
}

// Restore replaces the database, and the library file when the snapshot has
// one, with the snapshot at path. The current state is snapshotted first.
func (m *Manager) Restore(path string) (Info, error) {
	if _, err := os.Stat(path); err != nil {
		return Info{}, fmt.Errorf("backup file does not exist: %s", path)
	}
	if err := Verify(path); err != nil {
		return Info{}, fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var safety Info
	if _, err := os.Stat(m.dbPath); err == nil {
		s, err := m.create(false)
		if err != nil {
			return Info{}, fmt.Errorf("failed to backup current database before restore: %w", err)
		}
		safety = s
	}

	if err := replaceFile(path, m.dbPath); err != nil {
		return Info{}, fmt.Errorf("failed to restore database: %w", err)
	}
	local := strings.TrimSuffix(path, constants.BackupFileSuffix) + LocalSuffix
	if m.localPath != "" {
		if _, err := os.Stat(local); err == nil {
			if err := replaceFile(local, m.localPath); err != nil {
				return Info{}, fmt.Errorf("failed to restore library file: %w", err)
			}
		}
	}
	logger.Info("Backup restored", "from", path, "safety", safety.Path)
	return safety, nil
}

// Verify checks that path is a readable SQLite database.
func Verify(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(new(int))
}

// replaceFile copies src over dst through a temporary file and a rename.
func replaceFile(src, dst string) error {
	tmp := dst + ".restore.tmp"
	if err := copyFile(src, tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tmp, "error", rmErr)
		}
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
