package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrz1836/postmark"

	"github.com/figuroforge/authkit/pkg/config"
	"github.com/figuroforge/authkit/pkg/sanitizer"
)

// Mailer sends the transactional emails owned by the session store:
// signup verification and password reset.
type Mailer interface {
	SendVerification(ctx context.Context, email, redirectTo string) error
	SendPasswordReset(ctx context.Context, email, redirectTo string) error
}

// ErrFailedToSendEmail wraps provider-level delivery failures.
var ErrFailedToSendEmail = errors.New("failed to send email")

// MailerConfig holds configuration for the Postmark mailer.
type MailerConfig struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN,required"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN,required"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
}

type postmarkMailer struct {
	client *postmark.Client
	sender string
}

// NewPostmarkMailer creates a Postmark-backed mailer. Tokens are required:
// explicit configuration beats silent failures in production.
func NewPostmarkMailer(cfg MailerConfig) (Mailer, error) {
	if cfg.PostmarkServerToken == "" || cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: postmark tokens are required", ErrFailedToSendEmail)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: sender email is required", ErrFailedToSendEmail)
	}

	return &postmarkMailer{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		sender: cfg.SenderEmail,
	}, nil
}

// NewPostmarkMailerFromEnv creates a Postmark-backed mailer configured
// from environment variables.
func NewPostmarkMailerFromEnv() (Mailer, error) {
	var cfg MailerConfig
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return NewPostmarkMailer(cfg)
}

func (m *postmarkMailer) SendVerification(ctx context.Context, email, redirectTo string) error {
	return m.send(ctx, email, "Confirm your email",
		fmt.Sprintf(`<p>Confirm your email to start creating figurines: <a href="%s">verify your address</a>.</p>`, redirectTo),
		"email-verification",
	)
}

func (m *postmarkMailer) SendPasswordReset(ctx context.Context, email, redirectTo string) error {
	return m.send(ctx, email, "Reset your password",
		fmt.Sprintf(`<p>Follow this link to choose a new password: <a href="%s">reset password</a>.</p>`, redirectTo),
		"password-reset",
	)
}

func (m *postmarkMailer) send(ctx context.Context, to, subject, bodyHTML, tag string) error {
	resp, err := m.client.SendEmail(ctx, postmark.Email{
		From:       m.sender,
		To:         to,
		Subject:    subject,
		Tag:        tag,
		HTMLBody:   bodyHTML,
		TrackOpens: true,
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSendEmail, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

// DevMailer logs emails instead of sending them. Used in development and
// tests where delivery is irrelevant.
type DevMailer struct {
	Logger *slog.Logger
}

func (m DevMailer) SendVerification(ctx context.Context, email, redirectTo string) error {
	m.Logger.InfoContext(ctx, "verification email",
		slog.String("to", sanitizer.MaskEmail(email)),
		slog.String("redirect_to", redirectTo),
	)
	return nil
}

func (m DevMailer) SendPasswordReset(ctx context.Context, email, redirectTo string) error {
	m.Logger.InfoContext(ctx, "password reset email",
		slog.String("to", sanitizer.MaskEmail(email)),
		slog.String("redirect_to", redirectTo),
	)
	return nil
}
