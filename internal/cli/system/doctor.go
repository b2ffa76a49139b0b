package system

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/chapterly/internal/booksearch"
	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/utils"
	"github.com/julianstephens/chapterly/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name     string
	run      func(*cli.Context) error
	opensDB  bool // later checks need it to pass
	needsDB  bool
	warnOnly bool
}

var checks = []check{
	{name: "Database reachable", run: checkDBReachable, opensDB: true},
	{name: "Schema version", run: checkSchemaVersion, needsDB: true},
	{name: "Orphaned rows", run: checkOrphans, needsDB: true},
	{name: "Timezone setting", run: checkTimezone, needsDB: true},
	{name: "Personal library", run: checkLibrary},
	{name: "Clock/timezone", run: checkClock},
	{name: "Backups present", run: checkBackupsPresent, needsDB: true, warnOnly: true},
	{name: "Book search key", run: checkSearchKey, warnOnly: true},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	dbReachable := false
	for _, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
			if c.opensDB {
				dbReachable = true
			}
		case c.warnOnly:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	fmt.Println("All diagnostics passed!")
	return nil
}

type dbHandle interface {
	DB() *sql.DB
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.LoadStore(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if h, ok := ctx.Store.(dbHandle); ok {
		var one int
		if err := h.DB().QueryRow("SELECT 1").Scan(&one); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	if _, err := ctx.Store.GetSettings(); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return nil
	}
	current, latest, err := m.SchemaStatus()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'chapterly migrate')", current, latest)
	}
	return nil
}

// orphanQueries count rows whose parent row is gone.
var orphanQueries = []struct{ what, query string }{
	{"chapter sets without a book", `SELECT COUNT(*) FROM chapter_set c LEFT JOIN book_info b ON c.book_info_id = b.id WHERE b.id IS NULL`},
	{"selections without a chapter set", `SELECT COUNT(*) FROM user_chapter_log l LEFT JOIN chapter_set c ON l.chapter_set_id = c.id WHERE c.id IS NULL`},
	{"members of missing shared books", `SELECT COUNT(*) FROM book_members m LEFT JOIN shared_books b ON m.book_id = b.id WHERE b.id IS NULL`},
	{"comments on missing posts", `SELECT COUNT(*) FROM shared_book_comments c LEFT JOIN shared_book_posts p ON c.post_id = p.id WHERE p.id IS NULL`},
}

func checkOrphans(ctx *cli.Context) error {
	h, ok := ctx.Store.(dbHandle)
	if !ok {
		return nil
	}
	var problems []error
	for _, q := range orphanQueries {
		var n int
		if err := h.DB().QueryRow(q.query).Scan(&n); err != nil {
			return fmt.Errorf("failed to check %s: %w", q.what, err)
		}
		if n > 0 {
			problems = append(problems, fmt.Errorf("found %d %s", n, q.what))
		}
	}
	return errors.Join(problems...)
}

func checkTimezone(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return err
	}
	if _, err := utils.LoadLocation(settings.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
	}
	return nil
}

func checkLibrary(ctx *cli.Context) error {
	if err := ctx.LoadLocal(); err != nil {
		return err
	}
	books, err := ctx.Local.Books()
	if err != nil {
		return err
	}
	notes, err := ctx.Local.Notes()
	if err != nil {
		return err
	}
	res := validation.CheckLibrary(books, notes)
	if res.HasIssues() {
		return fmt.Errorf("%d issue(s) found, run 'chapterly validate' for details", len(res.Issues))
	}
	return nil
}

func checkClock(*cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr := ctx.Backups()
	if mgr == nil {
		return nil
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'chapterly backup create'")
	}
	return nil
}

func checkSearchKey(*cli.Context) error {
	_, err := booksearch.ResolveKey()
	return err
}
