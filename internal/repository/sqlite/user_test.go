package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/bbg-music/auth-service/internal/apperror"
	"github.com/bbg-music/auth-service/internal/model"
)

// newTestDB returns a DB backed by an in-memory SQLite database, closed
// automatically when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(:memory:): %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a user with sensible defaults and fails the test on
// error.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		PasswordHash: "$2a$04$fakefakefakefakefakefakefakefakefakefakefakefakefakef",
		Email:        username + "@example.com",
		Role:         model.RoleUser,
		Tier:         model.TierFree,
		Country:      "PE",
		AvatarURL:    "https://ui-avatars.com/api/?name=" + username,
	}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestUserCreateAndGet(t *testing.T) {
	db := newTestDB(t)

	created := createTestUser(t, db, "alice")
	if created.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("Create() did not assign timestamps")
	}

	byID, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID.Username != "alice" || byID.Role != model.RoleUser || byID.Tier != model.TierFree {
		t.Errorf("GetByID() = %+v, fields don't match the insert", byID)
	}

	byName, err := db.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if byName.ID != created.ID {
		t.Errorf("GetByUsername().ID = %q, want %q", byName.ID, created.ID)
	}
}

// The UNIQUE constraint is the authoritative duplicate check; the driver
// error must surface as the domain's duplicate-username failure.
func TestUserCreate_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")

	dup := &model.User{
		Username:     "alice",
		PasswordHash: "x",
		Role:         model.RoleUser,
		Tier:         model.TierFree,
	}
	err := db.Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrDuplicateUsername) {
		t.Fatalf("Create(duplicate) error = %v, want ErrDuplicateUsername", err)
	}
}

func TestUserGet_NotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.GetByID(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := db.GetByUsername(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByUsername(missing) error = %v, want ErrNotFound", err)
	}
}

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")

	user.Role = model.RoleAdmin
	user.Tier = model.TierPremium
	user.PasswordHash = "$2a$04$differenthashdifferenthashdifferenthashdifferenthashdi"

	if err := db.Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	stored, err := db.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Role != model.RoleAdmin || stored.Tier != model.TierPremium {
		t.Errorf("stored = %s/%s, want ADMIN/PREMIUM", stored.Role, stored.Tier)
	}
	if stored.PasswordHash != user.PasswordHash {
		t.Error("password hash was not persisted")
	}
	if stored.Username != "alice" {
		t.Errorf("Username changed to %q; it must be immutable", stored.Username)
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	ghost := &model.User{ID: "no-such-id", Role: model.RoleUser, Tier: model.TierFree}
	if err := db.Update(context.Background(), ghost); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update(missing) error = %v, want ErrNotFound", err)
	}
}
