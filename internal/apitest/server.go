// Package apitest runs the complete API in-process for tests: SQLite in
// memory for storage and miniredis for sessions and rate limits.
package apitest

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/edwinbf09/daily-activities/internal/activity"
	"github.com/edwinbf09/daily-activities/internal/auth"
	"github.com/edwinbf09/daily-activities/internal/config"
	"github.com/edwinbf09/daily-activities/internal/database"
	httpServer "github.com/edwinbf09/daily-activities/internal/http"
	"github.com/edwinbf09/daily-activities/internal/logging"
	"github.com/edwinbf09/daily-activities/internal/ratelimit"
	"github.com/edwinbf09/daily-activities/internal/report"
	"github.com/edwinbf09/daily-activities/internal/user"
)

// Key is the PASETO key the test server signs sessions with.
var Key = []byte("apitest-key-0123456789abcdefghij")

// Mail is a reset message captured by Mailbox.
type Mail struct {
	To    string
	Token string
}

// Mailbox collects password reset mails instead of sending them.
type Mailbox struct {
	mu   sync.Mutex
	mail []Mail
}

func (m *Mailbox) SendPasswordResetEmail(_ context.Context, toEmail, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mail = append(m.mail, Mail{To: toEmail, Token: token})
	return nil
}

// Messages returns the mails received so far.
func (m *Mailbox) Messages() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.mail...)
}

// Server is a running API.
type Server struct {
	*httptest.Server
	Redis   *miniredis.Miniredis
	Store   *activity.Store
	Auth    *auth.Service
	Mailbox *Mailbox
}

// New starts a server that is shut down when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	tokens, err := auth.NewPasetoService(Key)
	require.NoError(t, err)

	logger := logging.NewNop()
	store := activity.NewStore(db, logger)
	mailbox := &Mailbox{}
	authService := auth.NewService(
		user.NewRepository(db),
		auth.NewRedisSessionRepository(redisClient),
		tokens,
		mailbox,
		logger,
		time.Hour,
		time.Hour,
	)
	limiter := ratelimit.NewLimiter(redisClient, ratelimit.Limits{Window: time.Minute, Default: 1000})

	cfg := &config.Config{Server: config.ServerConfig{Env: "test"}}
	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Auth:       auth.NewHandler(authService, limiter),
		Middleware: auth.NewMiddleware(authService),
		Activities: activity.NewHandler(store),
		Reports:    report.NewHandler(store, report.NewGenerator()),
	}, logger, map[string]httpServer.Pinger{
		"database": httpServer.PingFunc(db.PingContext),
		"redis": httpServer.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	})

	srv := &Server{
		Server:  httptest.NewServer(router),
		Redis:   mr,
		Store:   store,
		Auth:    authService,
		Mailbox: mailbox,
	}
	t.Cleanup(func() {
		srv.Close()
		authService.Wait()
		redisClient.Close()
		db.Close()
	})

	return srv
}

// ResetToken waits for pending reset mails and returns the latest token sent to email.
func (s *Server) ResetToken(email string) string {
	s.Auth.Wait()
	msgs := s.Mailbox.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].To == email {
			return msgs[i].Token
		}
	}
	return ""
}
