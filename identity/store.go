package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateAccount = errors.New("account already exists")
	ErrInvalidInput     = errors.New("invalid account input")
	ErrStoreUnavailable = errors.New("account store unavailable")
)

// Store is the persistence contract the Resolver depends on. Lookups that find nothing
// return ErrAccountNotFound; backend failures wrap ErrStoreUnavailable.
type Store interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	// ListUsernamesWithPrefix returns every username starting with prefix. Backends may
	// return a superset; callers compare exactly.
	ListUsernamesWithPrefix(ctx context.Context, prefix string) ([]string, error)
	Create(ctx context.Context, account *Account) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}
