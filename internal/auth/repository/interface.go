package repository

import (
	"context"

	"github.com/google/uuid"
)

// UserReader is the read side used by adapters serving other domains.
type UserReader interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (User, error)
}

// AuthRepository defines the interface for authentication data operations.
// This allows services to depend on an abstraction rather than concrete implementation,
// improving testability and modularity.
type AuthRepository interface {
	UserReader

	// CreateUserWithProfile inserts the user and an empty profile row in one
	// transaction.
	CreateUserWithProfile(ctx context.Context, username, email, passwordHash string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// Ensure Repository implements AuthRepository
var _ AuthRepository = (*Repository)(nil)
