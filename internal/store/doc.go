// Package store provides persistent storage for FitLife using SQLite.
//
// # Architecture
//
// The store package exposes two narrow interfaces and one composite:
//
//   - UserStore: accounts, device binding, password reset tokens
//   - ActivityStore: daily activity records
//   - Store: both of the above plus Ping and Close
//
// SQLiteStore implements all of them in a single struct.
//
// # Data Models
//
//   - User: account with bcrypt password hash, optional bound device,
//     and an optional reset token with expiry
//   - Activity: one day of steps, distance and active time, optionally
//     owned by a user
//
// # Concurrency
//
// Invariants that must hold under concurrent requests live in the schema:
//
//   - users.email is UNIQUE
//   - users.device_id has a partial UNIQUE index (NULLs allowed)
//
// BindDevice and ResetPassword are single conditional UPDATE statements,
// so two racing logins cannot both claim a device and a reset token cannot
// be consumed twice.
//
// # SQLite Configuration
//
// Pragmas are passed in the DSN so every pooled connection gets them:
//
//	foreign_keys(1), busy_timeout(5000), journal_mode(WAL)
//
// Testing uses a database file under t.TempDir(); ":memory:" is also
// accepted and pinned to one connection.
//
// # Error Handling
//
//   - ErrNotFound: requested entity does not exist
//   - ErrEmailTaken, ErrDeviceTaken: unique constraint violations
//   - ErrDeviceMismatch: user already bound to another device
//   - ErrInvalidResetToken: token mismatch, expired, or already used
//
// All methods accept context.Context for cancellation support.
package store
