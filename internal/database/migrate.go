package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		reset_token VARCHAR(255),
		reset_token_expires TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		date DATE NOT NULL,
		amount NUMERIC(10, 2) NOT NULL DEFAULT 0,
		category VARCHAR(50) NOT NULL,
		is_paid BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		reset_token TEXT,
		reset_token_expires TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		date DATE NOT NULL,
		amount REAL NOT NULL DEFAULT 0,
		category TEXT NOT NULL,
		is_paid BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_activities_date ON activities(date)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_category ON activities(category)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_is_paid ON activities(is_paid)`,
	`CREATE INDEX IF NOT EXISTS idx_users_reset_token ON users(reset_token)`,
}

// Migrate creates the tables and indexes if they do not exist. It is safe to
// run on every start.
func Migrate(ctx context.Context, db *bun.DB) error {
	schema := postgresSchema
	if db.Dialect().Name() == dialect.SQLite {
		schema = sqliteSchema
	}

	for _, stmt := range append(schema, indexes...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}
