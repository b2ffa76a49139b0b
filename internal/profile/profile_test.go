package profile

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/julianstephens/chapterly/internal/constants"
	apperrors "github.com/julianstephens/chapterly/internal/errors"
	"github.com/julianstephens/chapterly/internal/storage/sqlite"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store)
}

func strPtr(s string) *string { return &s }

func TestSetAndGet(t *testing.T) {
	svc := setupService(t)

	p, err := svc.Set("u1", Update{DisplayName: strPtr(" 책벌레 "), Email: strPtr(" reader@example.com ")})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if p.DisplayName != "책벌레" || p.Email != "reader@example.com" {
		t.Errorf("profile = %+v", p)
	}

	// Only the fields given change.
	p, err = svc.Set("u1", Update{DisplayName: strPtr("")})
	if err != nil {
		t.Fatal(err)
	}
	if p.DisplayName != "" || p.Email != "reader@example.com" || p.Name() != "reader@example.com" {
		t.Errorf("partial update = %+v", p)
	}

	if _, err := svc.Set("u1", Update{Email: strPtr("not-an-email")}); !apperrors.IsValidation(err) {
		t.Errorf("bad email error = %v, want validation error", err)
	}

	missing, err := svc.Get("nobody")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if missing.UserID != "nobody" || missing.Name() != constants.AnonymousName {
		t.Errorf("missing profile = %+v", missing)
	}
}

func TestCurrentUser(t *testing.T) {
	svc := setupService(t)
	t.Setenv(constants.EnvUser, "")

	if _, err := svc.CurrentUser(""); !errors.Is(err, ErrNoUser) {
		t.Errorf("CurrentUser() error = %v, want ErrNoUser", err)
	}

	if err := svc.SetDefault("saved"); err != nil {
		t.Fatal(err)
	}
	if u, _ := svc.CurrentUser(""); u != "saved" {
		t.Errorf("CurrentUser() = %q, want saved default", u)
	}

	t.Setenv(constants.EnvUser, "from-env")
	if u, _ := svc.CurrentUser(""); u != "from-env" {
		t.Errorf("CurrentUser() = %q, want env value", u)
	}
	if u, _ := svc.CurrentUser(" flag "); u != "flag" {
		t.Errorf("CurrentUser() = %q, want flag value", u)
	}
}
