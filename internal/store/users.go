// ABOUTME: User account persistence: creation, lookup, device binding, reset tokens
// ABOUTME: Device uniqueness is enforced by a unique index so concurrent binds cannot both win

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const userColumns = `id, name, email, password_hash, device_id, reset_token, reset_token_expiry, created_at`

// CreateUser inserts a new user and sets its ID.
// Returns ErrEmailTaken or ErrDeviceTaken on unique violations.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (name, email, password_hash, device_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		nullString(user.DeviceID),
		formatTime(user.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			if uniqueConstraintColumn(err) == "users.device_id" {
				return ErrDeviceTaken
			}
			return ErrEmailTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting user id: %w", err)
	}
	user.ID = id

	s.logger.Info("created user", "id", user.ID, "email", user.Email)
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by (already normalised) email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// GetUserByDeviceID retrieves the user bound to a device.
func (s *SQLiteStore) GetUserByDeviceID(ctx context.Context, deviceID string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE device_id = ?`, deviceID)
	return scanUser(row)
}

// CountUsers returns the number of registered users.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// BindDevice binds deviceID to the user if the user has no device yet.
// The check and the write happen in one UPDATE; the unique index on device_id
// rejects a second account claiming the same device.
//
// Returns ErrDeviceTaken if another user holds the device, ErrDeviceMismatch if
// the user is bound to a different device, and ErrNotFound if the user is gone.
func (s *SQLiteStore) BindDevice(ctx context.Context, userID int64, deviceID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET device_id = ? WHERE id = ? AND device_id IS NULL`,
		deviceID, userID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDeviceTaken
		}
		return fmt.Errorf("binding device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 1 {
		s.logger.Info("bound device", "user_id", userID)
		return nil
	}

	// Nothing updated: either the user is missing or already bound.
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.DeviceID != nil && *user.DeviceID == deviceID {
		return nil
	}
	return ErrDeviceMismatch
}

// ClearDevice removes the device binding from a user.
func (s *SQLiteStore) ClearDevice(ctx context.Context, userID int64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET device_id = NULL WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("clearing device: %w", err)
	}
	if err := requireOneRow(result); err != nil {
		return err
	}

	s.logger.Info("cleared device", "user_id", userID)
	return nil
}

// SetResetToken stores a reset token and its expiry, replacing any previous token.
func (s *SQLiteStore) SetResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET reset_token = ?, reset_token_expiry = ? WHERE id = ?`,
		token, formatTime(expiresAt), userID,
	)
	if err != nil {
		return fmt.Errorf("setting reset token: %w", err)
	}
	return requireOneRow(result)
}

// ResetPassword replaces the password hash and clears the reset token, but only
// while the stored token equals token and expires after now. A token can therefore
// be consumed once. Returns ErrInvalidResetToken otherwise.
func (s *SQLiteStore) ResetPassword(ctx context.Context, userID int64, token, passwordHash string, now time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, reset_token = NULL, reset_token_expiry = NULL
		WHERE id = ? AND reset_token = ? AND reset_token_expiry > ?
	`, passwordHash, userID, token, formatTime(now))
	if err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}

	if err := requireOneRow(result); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	s.logger.Info("password reset", "user_id", userID)
	return nil
}

func requireOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*User, error) {
	var user User
	var deviceID, resetToken, resetExpiry sql.NullString
	var createdAtStr string

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&deviceID,
		&resetToken,
		&resetExpiry,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if deviceID.Valid {
		user.DeviceID = &deviceID.String
	}
	if resetToken.Valid {
		user.ResetToken = &resetToken.String
	}
	if resetExpiry.Valid {
		t, err := parseTime(resetExpiry.String)
		if err != nil {
			return nil, fmt.Errorf("parsing reset_token_expiry: %w", err)
		}
		user.ResetTokenExpiry = &t
	}

	user.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &user, nil
}
