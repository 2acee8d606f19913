package service

import (
	"context"
	"errors"
	"strings"

	"profile_portal_backend/internal/auth/password"
	"profile_portal_backend/internal/auth/repository"
	"profile_portal_backend/internal/auth/token"
	"profile_portal_backend/internal/auth/transport"
	"profile_portal_backend/internal/events"
	"profile_portal_backend/platform/apperr"
	"profile_portal_backend/platform/config"
	"profile_portal_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	msgInvalidCredentials = "invalid credentials"
	msgInactive           = "account is disabled"
	msgWrongOldPassword   = "current password is incorrect"
	msgUsernameTaken      = "a user with that username already exists"
	msgEmailTaken         = "a user with that email already exists"
)

type Service struct {
	repo     repository.AuthRepository
	cfg      config.AuthServiceConfig
	eventBus events.Publisher
	log      *logger.Logger
}

func New(repo repository.AuthRepository, cfg config.AuthServiceConfig, eventBus events.Publisher, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, eventBus: eventBus, log: log}
}

// SignUp creates the account together with its empty profile.
func (s *Service) SignUp(ctx context.Context, req transport.SignUpRequest) (transport.SignUpResponse, error) {
	hash, err := password.Hash(req.Password1)
	if err != nil {
		return transport.SignUpResponse{}, err
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.CreateUserWithProfile(ctx, username, email, hash)
	if err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			msg := msgEmailTaken
			if dup.Field == "username" {
				msg = msgUsernameTaken
			}
			return transport.SignUpResponse{}, apperr.Validation(msg).
				WithOp("auth.SignUp").
				WithDetails(map[string][]string{dup.Field: {msg}})
		}
		return transport.SignUpResponse{}, err
	}

	s.log.AuthEvent("sign_up", user.Username, true, "")
	return transport.SignUpResponse{ID: user.ID.String(), Username: user.Username, Email: user.Email}, nil
}

// SignIn checks credentials and returns a signed access token.
func (s *Service) SignIn(ctx context.Context, email, plainPassword string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.AuthEvent("sign_in", email, false, "unknown email")
			return "", apperr.Unauthorized(msgInvalidCredentials)
		}
		return "", err
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		s.log.AuthEvent("sign_in", user.Username, false, "bad password")
		return "", apperr.Unauthorized(msgInvalidCredentials)
	}

	if !user.IsActive {
		s.log.AuthEvent("sign_in", user.Username, false, "inactive")
		return "", apperr.Forbidden(msgInactive)
	}

	accessToken, err := token.SignAccess(user.ID, user.Username, s.cfg.GetAccessTokenTTL(), s.cfg.GetJWTAccessSecret())
	if err != nil {
		return "", err
	}

	s.log.AuthEvent("sign_in", user.Username, true, "")
	return accessToken, nil
}

// ChangePassword replaces the password after checking the current one.
// A wrong current password is reported against old_password.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return err
	}

	if err := password.Compare(user.PasswordHash, oldPassword); err != nil {
		s.log.AuthEvent("password_change", user.Username, false, "wrong old password")
		return apperr.Validation(msgWrongOldPassword).
			WithOp("auth.ChangePassword").
			WithDetails(map[string][]string{"old_password": {msgWrongOldPassword}})
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.log.AuthEvent("password_change", user.Username, true, "")
	s.eventBus.Publish(ctx, events.PasswordChanged{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
	})
	return nil
}
