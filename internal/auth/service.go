package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/edwinbf09/daily-activities/internal/logging"
	"github.com/edwinbf09/daily-activities/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrNameRequired       = errors.New("name is required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrTokenRequired      = errors.New("reset token is required")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrSessionRevoked     = errors.New("session has been revoked")
)

// MinPasswordLength is the shortest password accepted on register and reset.
const MinPasswordLength = 6

// Argon2id parameters - tuned for security vs performance balance
// Time: 3, Memory: 64MB, Threads: 4, KeyLen: 32 bytes
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// Session is the result of a successful login or registration
type Session struct {
	User      *user.User `json:"user"`
	Token     string     `json:"token"`
	TokenType string     `json:"token_type"`
	ExpiresIn int64      `json:"expires_in"`
}

// Service handles authentication business logic
type Service struct {
	users           UserRepository
	sessions        SessionRepository
	tokens          TokenService
	notifier        ResetNotifier
	logger          *logging.Logger
	sessionDuration time.Duration
	resetTokenTTL   time.Duration
	now             func() time.Time
	verify          func(encodedHash, password string) bool
	pending         sync.WaitGroup
}

// dummyHash is checked against when an email is unknown so that Login costs
// the same whether or not the account exists.
var dummyHash = sync.OnceValue(func() string {
	h, err := hashPassword("agenda-unknown-account")
	if err != nil {
		panic(fmt.Sprintf("auth: failed to build dummy hash: %v", err))
	}
	return h
})

func NewService(
	users UserRepository,
	sessions SessionRepository,
	tokens TokenService,
	notifier ResetNotifier,
	logger *logging.Logger,
	sessionDuration time.Duration,
	resetTokenTTL time.Duration,
) *Service {
	return &Service{
		users:           users,
		sessions:        sessions,
		tokens:          tokens,
		notifier:        notifier,
		logger:          logger,
		sessionDuration: sessionDuration,
		resetTokenTTL:   resetTokenTTL,
		now:             time.Now,
		verify:          verifyPassword,
	}
}

// Register creates a new account and signs it in
func (s *Service) Register(ctx context.Context, email, password, name string) (*Session, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if name == "" {
		return nil, ErrNameRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, email, passwordHash, name)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.startSession(ctx, newUser)
}

// Login authenticates a user and opens a session. Unknown emails and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.verify(dummyHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.verify(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, existingUser)
}

// Authenticate verifies a session token and checks that its session is live
func (s *Service) Authenticate(ctx context.Context, token string) (*TokenClaims, error) {
	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	live, err := s.sessions.SessionExists(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if !live {
		return nil, ErrSessionRevoked
	}

	return claims, nil
}

// Logout revokes the session behind a token. Invalid tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return nil
	}
	return s.sessions.RevokeSession(ctx, claims.SessionID)
}

// RequestPasswordReset issues a reset token for a known email.
// Only a missing email is reported; every other outcome returns nil so
// callers cannot tell whether the account exists.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrEmailRequired
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.Warn("failed to get user for password reset", "error", err)
		}
		return nil
	}

	token, err := generateResetToken()
	if err != nil {
		s.logger.Warn("failed to generate password reset token", "error", err)
		return nil
	}

	expiresAt := s.now().Add(s.resetTokenTTL)
	if err := s.users.SetResetToken(ctx, existingUser.ID, hashToken(token), expiresAt); err != nil {
		s.logger.Warn("failed to store password reset token", "error", err)
		return nil
	}

	destination := existingUser.Email
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		// Detached from the request so the send survives the response.
		emailCtx := context.WithoutCancel(ctx)
		if err := s.notifier.SendPasswordResetEmail(emailCtx, destination, token); err != nil {
			s.logger.Warn("failed to send password reset email", "email", destination, "error", err)
		}
	}()

	return nil
}

// ConfirmReset sets a new password for the holder of a live reset token and
// signs out all of that user's sessions.
func (s *Service) ConfirmReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrTokenRequired
	}
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	digest := hashToken(token)
	holder, err := s.users.GetByResetToken(ctx, digest)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to find reset token: %w", err)
	}

	if !holder.ResetTokenValid(s.now()) {
		return ErrInvalidResetToken
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.ResetPassword(ctx, holder.ID, digest, passwordHash); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	if err := s.sessions.RevokeAllUserSessions(ctx, holder.ID); err != nil {
		s.logger.Warn("failed to revoke sessions after password reset", "user_id", holder.ID, "error", err)
	}

	return nil
}

// Wait blocks until in-flight reset emails have been handed off.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) startSession(ctx context.Context, u *user.User) (*Session, error) {
	sessionID := uuid.NewString()

	token, err := s.tokens.CreateToken(u.ID, u.Email, sessionID, s.sessionDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create session token: %w", err)
	}

	if err := s.sessions.StoreSession(ctx, u.ID, sessionID, s.now().Add(s.sessionDuration)); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &Session{
		User:      u,
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(s.sessionDuration.Seconds()),
	}, nil
}

// hashPassword creates an argon2id hash of the password
func hashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// Encode as: $argon2id$v=19$m=65536,t=3,p=4$salt$hash
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// verifyPassword checks if a password matches the stored hash
func verifyPassword(encodedHash, password string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	inputHash := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(decodedHash)))

	return subtle.ConstantTimeCompare(decodedHash, inputHash) == 1
}

// generateResetToken creates a 32-byte random token, hex encoded
func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
