// ABOUTME: Mailer that writes reset requests to the structured log
// ABOUTME: Used in development and whenever no email provider is configured

package mailer

import (
	"context"
	"log/slog"
)

// LogMailer records reset emails in the log instead of sending them.
// The token itself is only logged at debug level.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger.With("component", "mailer")}
}

// SendPasswordReset logs the reset request
func (m *LogMailer) SendPasswordReset(ctx context.Context, msg PasswordReset) error {
	m.logger.InfoContext(ctx, "password reset requested", "to", msg.To, "expires_at", msg.ExpiresAt)
	m.logger.DebugContext(ctx, "password reset token", "to", msg.To, "token", msg.Token)
	return nil
}
