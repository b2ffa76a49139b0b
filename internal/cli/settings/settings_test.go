package settings

import (
	"path/filepath"
	"testing"

	"github.com/julianstephens/chapterly/internal/cli"
	"github.com/julianstephens/chapterly/internal/localstore"
	"github.com/julianstephens/chapterly/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) *cli.Context {
	t.Helper()
	dir := t.TempDir()
	store := sqlite.NewStore(filepath.Join(dir, "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return &cli.Context{Store: store, Local: localstore.New(filepath.Join(dir, "local.json"))}
}

func TestSettingsCmd_List(t *testing.T) {
	ctx := setupTestDB(t)
	if err := (&SettingsCmd{List: true}).Run(ctx); err != nil {
		t.Errorf("settings list failed: %v", err)
	}
}

func TestSettingsCmd_Update(t *testing.T) {
	ctx := setupTestDB(t)
	tz := "Asia/Seoul"
	monday := false

	if err := (&SettingsCmd{Timezone: &tz, WeekStartsMonday: &monday}).Run(ctx); err != nil {
		t.Fatalf("settings update failed: %v", err)
	}
	s, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if s.Timezone != tz || s.WeekStartsMonday {
		t.Errorf("settings = %+v", s)
	}
	if ctx.Location().String() != tz {
		t.Errorf("Location() = %v, want %s", ctx.Location(), tz)
	}
}

func TestSettingsCmd_InvalidTimezone(t *testing.T) {
	ctx := setupTestDB(t)
	tz := "Mars/Olympus"
	if err := (&SettingsCmd{Timezone: &tz}).Run(ctx); err == nil {
		t.Error("expected an error for an unknown timezone")
	}
	s, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatal(err)
	}
	if s.Timezone == tz {
		t.Error("invalid timezone was saved")
	}
}
