package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/edwinbf09/daily-activities/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("an account with this email already exists")
)

// Repository handles user data persistence
type Repository struct {
	db  *bun.DB
	now func() time.Time
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

func (r *Repository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, email, passwordHash, name string) (*User, error) {
	now := r.timestamp()
	dbUser := &database.User{
		ID:           uuid.New(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Exec(ctx)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "duplicate key value violates unique constraint") ||
			strings.Contains(msg, "UNIQUE constraint failed") ||
			strings.Contains(msg, "SQLSTATE 23505") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getWhere(ctx, "email = ?", NormalizeEmail(email))
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getWhere(ctx, "id = ?", id)
}

// GetByResetToken retrieves the user holding a reset token digest. Expiry is
// not checked here; the caller compares it against its own clock.
func (r *Repository) GetByResetToken(ctx context.Context, tokenHash string) (*User, error) {
	return r.getWhere(ctx, "reset_token = ?", tokenHash)
}

func (r *Repository) getWhere(ctx context.Context, query string, arg any) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where(query, arg).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// SetResetToken stores a reset token digest and its expiry together,
// replacing any earlier pair.
func (r *Repository) SetResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("reset_token = ?", tokenHash).
		Set("reset_token_expires = ?", expiresAt.UTC()).
		Set("updated_at = ?", r.timestamp()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	return requireOneRow(result)
}

// ResetPassword sets a new password hash and clears the reset token pair in
// one statement. The update only applies while the given digest is still the
// stored one, so a token cannot be redeemed twice.
func (r *Repository) ResetPassword(ctx context.Context, userID uuid.UUID, tokenHash, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("reset_token = NULL").
		Set("reset_token_expires = NULL").
		Set("updated_at = ?", r.timestamp()).
		Where("id = ?", userID).
		Where("reset_token = ?", tokenHash).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                dbu.ID,
		Email:             dbu.Email,
		Name:              dbu.Name,
		PasswordHash:      dbu.PasswordHash,
		ResetTokenHash:    dbu.ResetToken,
		ResetTokenExpires: dbu.ResetTokenExpires,
		CreatedAt:         dbu.CreatedAt,
		UpdatedAt:         dbu.UpdatedAt,
	}
}
