package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/edwinbf09/daily-activities/internal/user"
)

// TokenService defines the interface for token creation and validation.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(userID uuid.UUID, email, sessionID string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserRepository is the account storage the service needs.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash, name string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByResetToken(ctx context.Context, tokenHash string) (*user.User, error)
	SetResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ResetPassword(ctx context.Context, userID uuid.UUID, tokenHash, passwordHash string) error
}

// SessionRepository tracks live sessions so tokens can be revoked before expiry.
type SessionRepository interface {
	StoreSession(ctx context.Context, userID uuid.UUID, sessionID string, expiresAt time.Time) error
	SessionExists(ctx context.Context, sessionID string) (bool, error)
	RevokeSession(ctx context.Context, sessionID string) error
	RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error
}

// ResetNotifier delivers a password reset token to its destination.
type ResetNotifier interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
}

// RateLimiter guards the public auth endpoints.
type RateLimiter interface {
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
	CheckEmailCooldown(ctx context.Context, email string) (bool, error)
	SetEmailCooldown(ctx context.Context, email string) error
}
