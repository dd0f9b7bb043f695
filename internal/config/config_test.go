package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPasetoKey = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PASETO_KEY", testPasetoKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, TokenFormatPaseto, cfg.Auth.TokenFormat)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionDuration)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.TrustedOrigins)
	assert.False(t, cfg.Email.SMTPEnabled())
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/agenda.db")
	t.Setenv("AUTH_TOKEN_FORMAT", "jwt")
	t.Setenv("JWT_SECRET", testPasetoKey+"-longer")
	t.Setenv("SESSION_DURATION", "3600")
	t.Setenv("RESET_TOKEN_TTL", "30m")
	t.Setenv("TRUSTED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_USER", "mailer")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Server.IsDevelopment())
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/agenda.db", cfg.Database.ConnectionString())
	assert.Equal(t, TokenFormatJWT, cfg.Auth.TokenFormat)
	assert.Equal(t, time.Hour, cfg.Auth.SessionDuration)
	assert.Equal(t, 30*time.Minute, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.TrustedOrigins)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.True(t, cfg.Email.SMTPEnabled())
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"short paseto key", map[string]string{"PASETO_KEY": "short"}},
		{"short jwt secret", map[string]string{"AUTH_TOKEN_FORMAT": "jwt", "JWT_SECRET": "short"}},
		{"unknown token format", map[string]string{"AUTH_TOKEN_FORMAT": "macaroon", "PASETO_KEY": testPasetoKey}},
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql", "PASETO_KEY": testPasetoKey}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   DriverPostgres,
		Host:     "db.example",
		Port:     "5432",
		User:     "agenda",
		Password: "pw",
		DBName:   "agenda",
		SSLMode:  "require",
	}
	assert.Equal(t, "host=db.example port=5432 user=agenda password=pw dbname=agenda sslmode=require", cfg.ConnectionString())

	cfg.ChannelBinding = "require"
	assert.Contains(t, cfg.ConnectionString(), " channel_binding=require")
}
