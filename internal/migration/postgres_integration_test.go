package migration

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"

	"github.com/julianstephens/chapterly/internal/constants"
)

// setupPostgresTestDB opens the database named by CHAPTERLY_TEST_POSTGRES,
// e.g. "postgres://user@localhost:5432/testdb?sslmode=disable".
func setupPostgresTestDB(t *testing.T) (*sql.DB, func()) {
	connStr := os.Getenv(constants.EnvTestPG)
	if connStr == "" {
		t.Skipf("%s not set, skipping PostgreSQL integration test", constants.EnvTestPG)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open postgres database: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("failed to ping postgres database: %v", err)
	}

	cleanup := func() {
		db.Exec("DROP TABLE IF EXISTS schema_version")
		db.Exec("DROP TABLE IF EXISTS test_readers")
		db.Exec("DROP TABLE IF EXISTS test_books")
		db.Close()
	}
	return db, cleanup
}

func TestPostgresSetVersion(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()

	migrationsPath := setupTestMigrations(t, map[string]string{
		"001_init.sql": "CREATE TABLE test_readers (id SERIAL PRIMARY KEY);",
	})
	runner := NewRunner(db, os.DirFS(migrationsPath), DriverPostgres)

	if err := runner.SetVersion(1); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	if err := runner.SetVersion(2); err != nil {
		t.Fatalf("SetVersion(2) failed: %v", err)
	}
	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
}

func TestPostgresApplyMigrations(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()

	migrationsPath := setupTestMigrations(t, map[string]string{
		"001_init.sql": `
			CREATE TABLE test_readers (
				id SERIAL PRIMARY KEY,
				name TEXT NOT NULL
			);
		`,
		"002_books.sql": `
			CREATE TABLE test_books (
				id SERIAL PRIMARY KEY,
				reader_id INTEGER NOT NULL REFERENCES test_readers(id),
				title TEXT NOT NULL
			);
		`,
	})
	runner := NewRunner(db, os.DirFS(migrationsPath), DriverPostgres)

	count, err := runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 migrations applied, got %d", count)
	}

	count, err = runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("second ApplyMigrations failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no-op on second run, got %d", count)
	}
}
