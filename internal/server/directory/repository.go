// Package directory is the user-directory port of the authentication
// subsystem: lookup and persistence of identity records. The orchestrator
// depends only on the Repository interface; adapters for Postgres and for
// in-memory use live alongside it.
package directory

import (
	"context"

	"github.com/mrememisaac/communityauth/internal/server/models"
)

// Repository is implemented by user-directory adapters. Lookups return
// common.ErrorNotFound when no record matches; any other error is an
// infrastructure fault. Create returns common.ErrorAlreadyExists when a
// uniqueness constraint on email or username rejects the insert — the
// storage layer, not the caller, is the authority that closes the
// check-then-act race between concurrent registrations.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}
