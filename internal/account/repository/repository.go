// Package repository persists account profiles.
package repository

import (
	"context"
	"errors"
	"time"

	"profile_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opGetOrCreate      = "account.repository.GetOrCreate"
	opUpdate           = "account.repository.Update"
	opSetVerifiedPhone = "account.repository.SetVerifiedPhone"

	msgProfileNotFound = "profile not found"
)

const (
	profileColumns = `user_id, real_name, nickname, portrait, address, phone, phone_verified_at, created_at, updated_at`

	// The no-op DO UPDATE makes RETURNING yield the existing row.
	getOrCreateQuery = `
		INSERT INTO profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING ` + profileColumns

	updateQuery = `
		UPDATE profiles
		SET real_name = $2,
		    nickname = $3,
		    portrait = $4,
		    address = $5,
		    phone = $6,
		    phone_verified_at = CASE WHEN phone IS DISTINCT FROM $6 THEN NULL ELSE phone_verified_at END,
		    updated_at = now()
		WHERE user_id = $1
		RETURNING ` + profileColumns

	setVerifiedPhoneQuery = `
		UPDATE profiles
		SET phone = $2, phone_verified_at = now(), updated_at = now()
		WHERE user_id = $1
		RETURNING ` + profileColumns
)

// Profile is a row of the profiles table. Nil means NULL.
type Profile struct {
	UserID          uuid.UUID
	RealName        *string
	Nickname        *string
	Portrait        *string
	Address         *string
	Phone           *string
	PhoneVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProfileRepository is the persistence port of the account service.
type ProfileRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (Profile, error)
	Update(ctx context.Context, p Profile) (Profile, error)
	SetVerifiedPhone(ctx context.Context, userID uuid.UUID, phone string) (Profile, error)
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetOrCreate returns the user's profile, inserting an empty one on first access.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (Profile, error) {
	var p Profile
	if err := scanProfile(r.pool.QueryRow(ctx, getOrCreateQuery, userID), &p); err != nil {
		return Profile{}, apperr.Wrap(apperr.KindInternal, "load profile failed", err).WithOp(opGetOrCreate)
	}
	return p, nil
}

// Update writes every editable column. Changing the phone clears its
// verification timestamp.
func (r *Repository) Update(ctx context.Context, p Profile) (Profile, error) {
	var out Profile
	err := scanProfile(r.pool.QueryRow(ctx, updateQuery, p.UserID, p.RealName, p.Nickname, p.Portrait, p.Address, p.Phone), &out)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, apperr.NotFound(msgProfileNotFound).WithOp(opUpdate)
	}
	if err != nil {
		return Profile{}, apperr.Wrap(apperr.KindInternal, "update profile failed", err).WithOp(opUpdate)
	}
	return out, nil
}

// SetVerifiedPhone stores a confirmed number and stamps it as verified.
func (r *Repository) SetVerifiedPhone(ctx context.Context, userID uuid.UUID, phone string) (Profile, error) {
	if _, err := r.GetOrCreate(ctx, userID); err != nil {
		return Profile{}, err
	}
	var out Profile
	err := scanProfile(r.pool.QueryRow(ctx, setVerifiedPhoneQuery, userID, phone), &out)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, apperr.NotFound(msgProfileNotFound).WithOp(opSetVerifiedPhone)
	}
	if err != nil {
		return Profile{}, apperr.Wrap(apperr.KindInternal, "set phone failed", err).WithOp(opSetVerifiedPhone)
	}
	return out, nil
}

func scanProfile(row pgx.Row, p *Profile) error {
	return row.Scan(
		&p.UserID,
		&p.RealName,
		&p.Nickname,
		&p.Portrait,
		&p.Address,
		&p.Phone,
		&p.PhoneVerifiedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

var _ ProfileRepository = (*Repository)(nil)
