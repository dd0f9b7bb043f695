package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/edwinbf09/daily-activities/docs" // Swagger docs (generated)
	"github.com/edwinbf09/daily-activities/internal/activity"
	"github.com/edwinbf09/daily-activities/internal/auth"
	"github.com/edwinbf09/daily-activities/internal/config"
	"github.com/edwinbf09/daily-activities/internal/database"
	"github.com/edwinbf09/daily-activities/internal/email"
	httpServer "github.com/edwinbf09/daily-activities/internal/http"
	"github.com/edwinbf09/daily-activities/internal/logging"
	"github.com/edwinbf09/daily-activities/internal/ratelimit"
	"github.com/edwinbf09/daily-activities/internal/report"
	"github.com/edwinbf09/daily-activities/internal/user"
)

// @title           Nuestra Agenda API
// @version         1.0
// @description     Shared activity tracker with accounts, password reset and PDF reports.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment()).SetLevel(cfg.Log.Level)
	defer logger.Sync()

	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"token_format", cfg.Auth.TokenFormat,
	)

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("database schema ready")
	}

	redisClient, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Repositories
	userRepo := user.NewRepository(db)
	activityStore := activity.NewStore(db, logger)
	sessionRepo := auth.NewRedisSessionRepository(redisClient)

	rateLimiter := ratelimit.NewLimiter(redisClient, ratelimit.Limits{
		Window: cfg.RateLimit.Window,
		PerPurpose: map[string]int{
			"login":    cfg.RateLimit.LoginLimit,
			"register": cfg.RateLimit.RegisterLimit,
			"reset":    cfg.RateLimit.ResetLimit,
		},
		EmailCooldown: cfg.RateLimit.EmailCooldown,
	})

	tokens, err := newTokenService(cfg.Auth)
	if err != nil {
		return err
	}

	var notifier auth.ResetNotifier
	if cfg.Email.SMTPEnabled() {
		notifier = email.NewService(cfg.Email, cfg.Auth.ResetTokenTTL)
	} else {
		logger.Warn("SMTP not configured, reset links will only be logged")
		notifier = email.NewLogSender(cfg.Email.FrontendURL, logger)
	}

	authService := auth.NewService(
		userRepo,
		sessionRepo,
		tokens,
		notifier,
		logger,
		cfg.Auth.SessionDuration,
		cfg.Auth.ResetTokenTTL,
	)

	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Auth:       auth.NewHandler(authService, rateLimiter),
		Middleware: auth.NewMiddleware(authService),
		Activities: activity.NewHandler(activityStore),
		Reports:    report.NewHandler(activityStore, report.NewGenerator()),
	}, logger, map[string]httpServer.Pinger{
		"database": httpServer.PingFunc(db.PingContext),
		"redis": httpServer.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	})

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		// Reset mails still in flight are sent before the process exits.
		authService.Wait()
	}

	return nil
}

func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.TokenFormat {
	case config.TokenFormatJWT:
		svc, err := auth.NewJWTService(cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		return svc, nil
	default:
		svc, err := auth.NewPasetoService(cfg.PasetoKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PASETO service: %w", err)
		}
		return svc, nil
	}
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
