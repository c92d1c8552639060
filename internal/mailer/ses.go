// ABOUTME: Amazon SES mailer for password reset emails
// ABOUTME: Credentials come from the default AWS chain; region and sender from config

package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/Vladimir-28/FitLife/internal/config"
)

// sesAPI is the subset of the SES client used here
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer sends email through Amazon SES
type SESMailer struct {
	client   sesAPI
	from     string
	resetURL string
	logger   *slog.Logger
}

// NewSESMailer loads the default AWS configuration for cfg.Region.
func NewSESMailer(ctx context.Context, cfg config.MailConfig, logger *slog.Logger) (*SESMailer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return newSESMailer(ses.NewFromConfig(awsCfg), cfg, logger), nil
}

func newSESMailer(client sesAPI, cfg config.MailConfig, logger *slog.Logger) *SESMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SESMailer{
		client:   client,
		from:     cfg.From,
		resetURL: cfg.ResetURL,
		logger:   logger.With("component", "mailer", "provider", "ses"),
	}
}

// SendPasswordReset emails the reset token to msg.To
func (m *SESMailer) SendPasswordReset(ctx context.Context, msg PasswordReset) error {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(resetSubject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(resetBody(msg, m.resetURL)),
				},
			},
		},
		Source: aws.String(m.from),
	}

	out, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("sending reset email: %w", err)
	}
	m.logger.InfoContext(ctx, "password reset email sent", "to", msg.To, "message_id", aws.ToString(out.MessageId))
	return nil
}
