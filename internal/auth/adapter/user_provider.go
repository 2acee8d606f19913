// Package adapter provides implementations of external interfaces that other domains need.
// This follows the Anti-Corruption Layer pattern - auth domain provides adapters
// that satisfy consumer-driven interfaces defined by other domains.
package adapter

import (
	"context"

	"profile_portal_backend/internal/auth"
	"profile_portal_backend/internal/auth/repository"

	"github.com/google/uuid"
)

// UserProviderAdapter implements auth.UserProvider using the auth repository.
// This lets the account and notification domains read users without
// depending on auth internals.
type UserProviderAdapter struct {
	repo repository.UserReader
}

// NewUserProviderAdapter creates a new adapter for providing user info to other domains.
func NewUserProviderAdapter(repo repository.UserReader) *UserProviderAdapter {
	return &UserProviderAdapter{repo: repo}
}

// GetUserByID implements auth.UserProvider.
func (a *UserProviderAdapter) GetUserByID(ctx context.Context, userID uuid.UUID) (auth.UserInfo, error) {
	user, err := a.repo.GetUserByID(ctx, userID)
	if err != nil {
		return auth.UserInfo{}, err
	}

	return auth.UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

// Ensure UserProviderAdapter implements auth.UserProvider
var _ auth.UserProvider = (*UserProviderAdapter)(nil)
