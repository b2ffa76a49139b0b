package system

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/localstore"
	"github.com/julianstephens/chapterly/internal/storage/sqlite"
)

func setupTestInitDB(t *testing.T) (*cli.Context, string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	localPath := filepath.Join(dir, "nested", "local.json")

	store := sqlite.NewStore(dbPath)
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return &cli.Context{Store: store, Local: localstore.New(localPath)}, dbPath, localPath
}

func TestInitCmd_Success(t *testing.T) {
	ctx, dbPath, localPath := setupTestInitDB(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file was not created: %v", err)
	}
	if _, err := os.Stat(localPath); err != nil {
		t.Errorf("local store was not created: %v", err)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _, _ := setupTestInitDB(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Errorf("second init failed (should be idempotent): %v", err)
	}
}

func TestValidateCmd_CleanLibrary(t *testing.T) {
	ctx, _, _ := setupTestInitDB(t)
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&ValidateCmd{}).Run(ctx); err != nil {
		t.Errorf("validate on an empty library failed: %v", err)
	}
}
