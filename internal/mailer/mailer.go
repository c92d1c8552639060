// ABOUTME: Delivery of password reset emails
// ABOUTME: Chooses between a logging mailer and Amazon SES based on configuration

package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Vladimir-28/FitLife/internal/config"
)

// PasswordReset is the content of a reset email
type PasswordReset struct {
	To        string
	Name      string
	Token     string
	ExpiresAt time.Time
}

// Mailer sends account emails
type Mailer interface {
	SendPasswordReset(ctx context.Context, msg PasswordReset) error
}

// New builds the mailer selected by cfg.Provider.
func New(ctx context.Context, cfg config.MailConfig, logger *slog.Logger) (Mailer, error) {
	switch cfg.Provider {
	case "", "log":
		return NewLogMailer(logger), nil
	case "ses":
		return NewSESMailer(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

const resetSubject = "FitLife: restablecer contraseña"

// resetBody renders the plain text reset email. When resetURL is set the
// token is appended to it as a link.
func resetBody(msg PasswordReset, resetURL string) string {
	var b strings.Builder
	name := msg.Name
	if name == "" {
		name = msg.To
	}
	fmt.Fprintf(&b, "Hola %s,\n\n", name)
	b.WriteString("Recibimos una solicitud para restablecer tu contraseña de FitLife.\n\n")
	if resetURL != "" {
		fmt.Fprintf(&b, "Abre este enlace para elegir una nueva contraseña:\n%s%s\n\n", resetURL, msg.Token)
	} else {
		fmt.Fprintf(&b, "Tu código de restablecimiento es:\n%s\n\n", msg.Token)
	}
	fmt.Fprintf(&b, "El código caduca el %s (UTC).\n\n", msg.ExpiresAt.UTC().Format("2006-01-02 15:04"))
	b.WriteString("Si no solicitaste este cambio, ignora este mensaje.\n")
	return b.String()
}
