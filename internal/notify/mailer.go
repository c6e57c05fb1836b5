package notify

import (
	"context"
	"log/slog"

	"settlement-core/internal/pkg/config"
	"settlement-core/internal/pkg/errs"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers transactional email. Delivery is best-effort; callers
// must not let a send failure roll back business state.
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, plainBody string) error
}

type SendGridMailer struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
	logger   *slog.Logger
}

func NewSendGridMailer(cfg config.MailConfig, logger *slog.Logger) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromName: cfg.FromName,
		fromAddr: cfg.FromEmail,
		logger:   logger,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, toEmail, toName, subject, plainBody string) error {
	from := mail.NewEmail(m.fromName, m.fromAddr)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainBody, "")

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return errs.Wrap(err, "failed to send email")
	}
	if resp.StatusCode >= 400 {
		m.logger.Warn("mail provider rejected message",
			"status", resp.StatusCode,
			"subject", subject)
		return errs.New("mail provider rejected message")
	}
	return nil
}

// NoopMailer is used when no mail API key is configured.
type NoopMailer struct {
	logger *slog.Logger
}

func NewNoopMailer(logger *slog.Logger) *NoopMailer {
	return &NoopMailer{logger: logger}
}

func (m *NoopMailer) Send(_ context.Context, toEmail, _ string, subject, _ string) error {
	m.logger.Info("mail delivery skipped (no api key)", "to", toEmail, "subject", subject)
	return nil
}

// NewMailer picks the real sender when an API key is present.
func NewMailer(cfg config.MailConfig, logger *slog.Logger) Mailer {
	if cfg.SendGridAPIKey == "" {
		return NewNoopMailer(logger)
	}
	return NewSendGridMailer(cfg, logger)
}
