package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/bbg-music/auth-service/internal/apperror"
	"github.com/bbg-music/auth-service/internal/model"
	"github.com/bbg-music/auth-service/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, password_hash, email, role, subscription_tier,
	country, avatar_url, created_at, updated_at`

// Create inserts a new user. The ID and timestamps are assigned here — the
// caller only fills the profile fields.
//
// A UNIQUE violation on username is translated to apperror.ErrDuplicateUsername
// so the race between the service layer's pre-check and this INSERT still
// surfaces as the same domain error.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Email,
		string(user.Role),
		string(user.Tier),
		user.Country,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// modernc.org/sqlite reports constraint failures as
		// "constraint failed: UNIQUE constraint failed: users.username".
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.username") {
			return apperror.DuplicateUsername(user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound (wrapped) if no row matches.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByUsername retrieves a user by username.
// Returns apperror.ErrNotFound (wrapped) if no row matches.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (db *DB) getUser(ctx context.Context, query, arg string) (*model.User, error) {
	var (
		u    model.User
		role string
		tier string
	)

	err := db.conn.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Email,
		&role,
		&tier,
		&u.Country,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", arg)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", arg, err)
	}

	u.Role = model.Role(role)
	u.Tier = model.SubscriptionTier(tier)
	return &u, nil
}

// Update persists the mutable fields of an existing user (password hash,
// email, role, tier, country, avatar). Username and ID are immutable after
// creation and are not part of the SET list.
//
// Last write wins: there is no version column, so two concurrent updates of
// the same user race at the row level.
func (db *DB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET password_hash = ?, email = ?, role = ?, subscription_tier = ?,
		     country = ?, avatar_url = ?, updated_at = ?
		 WHERE id = ?`,
		user.PasswordHash,
		user.Email,
		string(user.Role),
		string(user.Tier),
		user.Country,
		user.AvatarURL,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}
