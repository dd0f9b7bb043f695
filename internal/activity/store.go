package activity

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
	"github.com/edwinbf09/daily-activities/internal/logging"
)

// Repository is the persistence contract the HTTP handlers depend on.
type Repository interface {
	List(ctx context.Context) ([]Activity, error)
	ListByCategory(ctx context.Context, category Category) ([]Activity, error)
	Get(ctx context.Context, id uuid.UUID) (Activity, error)
	Create(ctx context.Context, fields NewActivity) (Activity, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (Activity, error)
	TogglePaid(ctx context.Context, id uuid.UUID) (Activity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Store persists activities in the activities table.
type Store struct {
	db     *bun.DB
	logger *logging.Logger
	now    func() time.Time
}

func NewStore(db *bun.DB, logger *logging.Logger) *Store {
	return &Store{db: db, logger: logger, now: time.Now}
}

// timestamp returns the store clock in UTC at the precision Postgres keeps.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// List returns every activity, newest first.
func (s *Store) List(ctx context.Context) ([]Activity, error) {
	var rows []database.Activity
	err := s.db.NewSelect().
		Model(&rows).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		s.logger.Error("failed to list activities", "error", err)
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	return mapRows(rows), nil
}

// ListByCategory returns the activities of one category, newest first.
func (s *Store) ListByCategory(ctx context.Context, category Category) ([]Activity, error) {
	var rows []database.Activity
	err := s.db.NewSelect().
		Model(&rows).
		Where("category = ?", string(category)).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		s.logger.Error("failed to list activities by category", "category", category, "error", err)
		return nil, fmt.Errorf("failed to list activities by category: %w", err)
	}

	return mapRows(rows), nil
}

// Get returns a single activity.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Activity, error) {
	row := new(database.Activity)
	err := s.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Activity{}, ErrNotFound
		}
		return Activity{}, fmt.Errorf("failed to get activity: %w", err)
	}

	return mapDBActivityToModel(row), nil
}

// Create inserts a new activity. Validation of required fields belongs to
// the caller; the store only fills in the id and timestamps.
func (s *Store) Create(ctx context.Context, fields NewActivity) (Activity, error) {
	id := fields.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	now := s.timestamp()
	row := &database.Activity{
		ID:          id,
		Name:        fields.Name,
		Description: fields.Description,
		Date:        fields.Date.Time,
		Amount:      fields.Amount,
		Category:    string(fields.Category),
		IsPaid:      fields.IsPaid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return Activity{}, ErrDuplicateID
		}
		s.logger.Error("failed to create activity", "error", err)
		return Activity{}, fmt.Errorf("failed to create activity: %w", err)
	}

	// Read back so the column types (NUMERIC rounding) shape the result.
	return s.Get(ctx, id)
}

// Update merges the supplied fields into the stored record and always
// refreshes updated_at.
func (s *Store) Update(ctx context.Context, id uuid.UUID, patch Patch) (Activity, error) {
	q := s.db.NewUpdate().
		Model((*database.Activity)(nil)).
		Set("updated_at = ?", s.timestamp()).
		Where("id = ?", id)

	if patch.Name != nil {
		q = q.Set("name = ?", *patch.Name)
	}
	if patch.Description != nil {
		q = q.Set("description = ?", *patch.Description)
	}
	if patch.Date != nil {
		q = q.Set("date = ?", patch.Date.Time)
	}
	if patch.Amount != nil {
		q = q.Set("amount = ?", *patch.Amount)
	}
	if patch.Category != nil {
		q = q.Set("category = ?", string(*patch.Category))
	}
	if patch.IsPaid != nil {
		q = q.Set("is_paid = ?", *patch.IsPaid)
	}

	if err := execAffectingOne(ctx, q); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to update activity", "id", id, "error", err)
		}
		return Activity{}, err
	}

	return s.Get(ctx, id)
}

// TogglePaid flips is_paid in a single statement.
func (s *Store) TogglePaid(ctx context.Context, id uuid.UUID) (Activity, error) {
	q := s.db.NewUpdate().
		Model((*database.Activity)(nil)).
		Set("is_paid = NOT is_paid").
		Set("updated_at = ?", s.timestamp()).
		Where("id = ?", id)

	if err := execAffectingOne(ctx, q); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to toggle paid status", "id", id, "error", err)
		}
		return Activity{}, err
	}

	return s.Get(ctx, id)
}

// Delete removes an activity. Deleting an unknown id reports ErrNotFound.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.NewDelete().
		Model((*database.Activity)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		s.logger.Error("failed to delete activity", "id", id, "error", err)
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func execAffectingOne(ctx context.Context, q *bun.UpdateQuery) error {
	result, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// isUniqueViolation matches the duplicate-key messages of Postgres and SQLite.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

func mapRows(rows []database.Activity) []Activity {
	out := make([]Activity, 0, len(rows))
	for i := range rows {
		out = append(out, mapDBActivityToModel(&rows[i]))
	}
	return out
}

// mapDBActivityToModel converts database model to domain model
func mapDBActivityToModel(row *database.Activity) Activity {
	return Activity{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Date:        DateOf(row.Date.UTC()),
		Amount:      row.Amount,
		Category:    Category(row.Category),
		IsPaid:      row.IsPaid,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}
