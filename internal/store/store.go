// ABOUTME: Store interfaces and data types for FitLife persistence
// ABOUTME: Defines User and Activity records plus the sentinel errors callers match on

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when another user already holds the email address
var ErrEmailTaken = errors.New("email already registered")

// ErrDeviceTaken is returned when another user already holds the device id
var ErrDeviceTaken = errors.New("device already bound to another user")

// ErrDeviceMismatch is returned when the user is bound to a different device
var ErrDeviceMismatch = errors.New("user bound to a different device")

// ErrInvalidResetToken is returned when a reset token does not match or has expired
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

// User is an account. PasswordHash is a bcrypt hash; the plain password is never stored.
type User struct {
	ID               int64
	Name             string
	Email            string
	PasswordHash     string
	DeviceID         *string
	ResetToken       *string
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
}

// HasDevice reports whether the user is bound to a device.
func (u *User) HasDevice() bool {
	return u.DeviceID != nil && *u.DeviceID != ""
}

// Activity is one day of tracked activity. UserID is nil for unowned legacy rows.
type Activity struct {
	ID         int64
	Day        string
	Steps      int
	DistanceKm float64
	ActiveTime string
	UserID     *int64
	CreatedAt  time.Time
}

// ActivityPatch holds the fields of a partial update. Nil fields keep their stored value.
type ActivityPatch struct {
	Day        *string
	Steps      *int
	DistanceKm *float64
	ActiveTime *string
}

// Empty reports whether the patch changes nothing.
func (p ActivityPatch) Empty() bool {
	return p.Day == nil && p.Steps == nil && p.DistanceKm == nil && p.ActiveTime == nil
}

// ActivityFilter narrows ListActivities. A nil UserID lists every row.
type ActivityFilter struct {
	UserID *int64
}

// UserStore defines persistence for accounts, device binding and reset tokens
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByDeviceID(ctx context.Context, deviceID string) (*User, error)
	CountUsers(ctx context.Context) (int, error)

	// BindDevice atomically binds deviceID to an unbound user.
	// Binding the device the user already holds is a no-op.
	BindDevice(ctx context.Context, userID int64, deviceID string) error
	ClearDevice(ctx context.Context, userID int64) error

	SetResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	// ResetPassword swaps the password hash and clears the reset token in one step,
	// only if token still matches and has not expired at now.
	ResetPassword(ctx context.Context, userID int64, token, passwordHash string, now time.Time) error
}

// ActivityStore defines persistence for activity records
type ActivityStore interface {
	ListActivities(ctx context.Context, filter ActivityFilter) ([]*Activity, error)
	GetActivity(ctx context.Context, id int64) (*Activity, error)
	CreateActivity(ctx context.Context, activity *Activity) error
	CreateActivities(ctx context.Context, activities []*Activity) error
	UpdateActivity(ctx context.Context, id int64, patch ActivityPatch) (*Activity, error)
	DeleteActivity(ctx context.Context, id int64) error
	CountActivities(ctx context.Context) (int, error)
}

// Store is the full persistence surface used by the server
type Store interface {
	UserStore
	ActivityStore

	// Ping checks the database is reachable
	Ping(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}
