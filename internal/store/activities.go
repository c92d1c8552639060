// ABOUTME: Activity persistence: list, create, partial update and delete
// ABOUTME: Partial updates keep stored values for every field the patch leaves nil

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const activityColumns = `id, day, steps, distance_km, active_time, user_id, created_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ListActivities returns activities ordered by id. When filter.UserID is set,
// only that user's activities are returned.
func (s *SQLiteStore) ListActivities(ctx context.Context, filter ActivityFilter) ([]*Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities`
	var args []any
	if filter.UserID != nil {
		query += ` WHERE user_id = ?`
		args = append(args, *filter.UserID)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	activities := make([]*Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}

	return activities, nil
}

// GetActivity retrieves an activity by ID.
func (s *SQLiteStore) GetActivity(ctx context.Context, id int64) (*Activity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// CreateActivity inserts an activity and sets its ID and CreatedAt.
func (s *SQLiteStore) CreateActivity(ctx context.Context, activity *Activity) error {
	if err := insertActivity(ctx, s.db, activity); err != nil {
		return err
	}
	s.logger.Debug("created activity", "id", activity.ID, "day", activity.Day)
	return nil
}

// CreateActivities inserts all activities in one transaction. Either every
// row is stored or none is.
func (s *SQLiteStore) CreateActivities(ctx context.Context, activities []*Activity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range activities {
		if err := insertActivity(ctx, tx, a); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing activities: %w", err)
	}

	s.logger.Debug("created activities", "count", len(activities))
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertActivity(ctx context.Context, db execer, activity *Activity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO activities (day, steps, distance_km, active_time, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := db.ExecContext(ctx, query,
		activity.Day,
		activity.Steps,
		activity.DistanceKm,
		activity.ActiveTime,
		nullInt64(activity.UserID),
		formatTime(activity.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting activity id: %w", err)
	}
	activity.ID = id
	return nil
}

// UpdateActivity applies patch to the activity and returns the stored result.
// Returns ErrNotFound if the activity doesn't exist.
func (s *SQLiteStore) UpdateActivity(ctx context.Context, id int64, patch ActivityPatch) (*Activity, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// COALESCE keeps the stored value for every NULL (omitted) argument
	result, err := tx.ExecContext(ctx, `
		UPDATE activities
		SET day = COALESCE(?, day),
			steps = COALESCE(?, steps),
			distance_km = COALESCE(?, distance_km),
			active_time = COALESCE(?, active_time)
		WHERE id = ?
	`,
		nullString(patch.Day),
		nullInt(patch.Steps),
		nullFloat(patch.DistanceKm),
		nullString(patch.ActiveTime),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating activity: %w", err)
	}
	if err := requireOneRow(result); err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	activity, err := scanActivity(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing activity update: %w", err)
	}

	s.logger.Debug("updated activity", "id", id)
	return activity, nil
}

// DeleteActivity removes an activity.
// Returns ErrNotFound if the activity doesn't exist.
func (s *SQLiteStore) DeleteActivity(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting activity: %w", err)
	}
	if err := requireOneRow(result); err != nil {
		return err
	}

	s.logger.Debug("deleted activity", "id", id)
	return nil
}

// CountActivities returns the total number of activity rows.
func (s *SQLiteStore) CountActivities(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting activities: %w", err)
	}
	return n, nil
}

// scanActivity returns sql.ErrNoRows unwrapped so callers can map it.
func scanActivity(row rowScanner) (*Activity, error) {
	var a Activity
	var userID sql.NullInt64
	var createdAtStr string

	err := row.Scan(
		&a.ID,
		&a.Day,
		&a.Steps,
		&a.DistanceKm,
		&a.ActiveTime,
		&userID,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning activity: %w", err)
	}

	if userID.Valid {
		a.UserID = &userID.Int64
	}
	a.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &a, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
