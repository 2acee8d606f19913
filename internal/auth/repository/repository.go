package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// DuplicateError reports a unique violation on a user column.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return "duplicate " + e.Field }

const pgUniqueViolation = "23505"

const (
	userColumns = `id, username, email, password_hash, is_active, date_joined, updated_at`

	insertUserQuery = `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	insertEmptyProfileQuery = `
		INSERT INTO profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`

	getUserByEmailQuery = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	getUserByIDQuery    = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	updatePasswordQuery = `
		UPDATE users SET password_hash = $2, updated_at = now()
		WHERE id = $1`
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	DateJoined   time.Time
	UpdatedAt    time.Time
}

func (r *Repository) CreateUserWithProfile(ctx context.Context, username, email, passwordHash string) (User, error) {
	var user User
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return User{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = scanUser(tx.QueryRow(ctx, insertUserQuery, username, email, passwordHash), &user)
	if err != nil {
		return User{}, mapUniqueViolation(err)
	}

	if _, err = tx.Exec(ctx, insertEmptyProfileQuery, user.ID); err != nil {
		return User{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return User{}, err
	}

	return user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := scanUser(r.pool.QueryRow(ctx, getUserByEmailQuery, email), &user)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

func (r *Repository) GetUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	var user User
	err := scanUser(r.pool.QueryRow(ctx, getUserByIDQuery, userID), &user)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

func (r *Repository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, updatePasswordQuery, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row, user *User) error {
	return row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.DateJoined,
		&user.UpdatedAt,
	)
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return &DuplicateError{Field: "username"}
	case strings.Contains(pgErr.ConstraintName, "email"):
		return &DuplicateError{Field: "email"}
	default:
		return err
	}
}
