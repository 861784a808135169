// Package repository declares the persistence interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/bbg-music/auth-service/internal/model"
)

// UserRepository is the credential store contract.
//
// Lookup misses return apperror.ErrNotFound (wrapped) so the service layer
// can classify without knowing the storage backend. Create must fail on a
// duplicate username — the UNIQUE constraint is the authoritative backstop
// behind the service's pre-check.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}
