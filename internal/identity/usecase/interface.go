// Package usecase implements account registration, login and removal on top of the
// identity store and the credential hasher.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/gatekeeper/internal/identity/domain"
)

// UserRepository defines persistence operations for identity records.
// Implementations must be safe for concurrent use.
type UserRepository interface {
	// Create stores a new record with version 1. Returns ErrUsernameTaken on duplicates.
	Create(ctx context.Context, user *domain.User) error

	// Update saves an existing record whose stored version equals user.Version and
	// increments user.Version. Returns ErrVersionConflict otherwise.
	Update(ctx context.Context, user *domain.User) error

	// GetByID retrieves a record. Returns ErrUserNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByUsername retrieves a record. Returns ErrUserNotFound if not found.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Delete removes a record and reports whether it existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// List returns records in creation order.
	List(ctx context.Context, offset, limit int) ([]*domain.User, error)
}

// RegisterInput contains the input data for account registration
type RegisterInput struct {
	Username string
	Password string
	IsAdmin  bool
}

// UseCase defines the account operations exposed to HTTP handlers and CLI commands.
type UseCase interface {
	// Register creates an account with a freshly derived credential binding.
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)

	// Login verifies the password and returns the account. Unknown usernames and wrong
	// passwords both return ErrInvalidCredentials after one KDF derivation.
	Login(ctx context.Context, username, password string) (*domain.User, error)

	// Deregister removes the account. Returns ErrUserNotFound if it doesn't exist.
	Deregister(ctx context.Context, id uuid.UUID) error

	// Get retrieves an account by ID.
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// List returns accounts in creation order.
	List(ctx context.Context, offset, limit int) ([]*domain.User, error)
}
