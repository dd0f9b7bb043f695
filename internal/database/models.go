package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted form of an account.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                uuid.UUID  `bun:"id,pk,type:uuid"`
	Email             string     `bun:"email,notnull,unique"`
	PasswordHash      string     `bun:"password_hash,notnull"`
	Name              string     `bun:"name,notnull"`
	ResetToken        *string    `bun:"reset_token"`
	ResetTokenExpires *time.Time `bun:"reset_token_expires"`
	CreatedAt         time.Time  `bun:"created_at,notnull"`
	UpdatedAt         time.Time  `bun:"updated_at,notnull"`
}

// Activity is the persisted form of a tracked activity.
type Activity struct {
	bun.BaseModel `bun:"table:activities,alias:a"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	Name        string    `bun:"name,notnull"`
	Description *string   `bun:"description"`
	Date        time.Time `bun:"date,notnull"`
	Amount      float64   `bun:"amount,notnull"`
	Category    string    `bun:"category,notnull"`
	IsPaid      bool      `bun:"is_paid,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}
