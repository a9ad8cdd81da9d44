package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/minerlab/miner-syncd/internal/config"
	"github.com/minerlab/miner-syncd/pkg/logger"
)

// Mailgun sends notifications as plain-text email.
// This is a thin wrapper around the Mailgun SDK.
type Mailgun struct {
	cfg     config.EmailConfig
	timeout time.Duration
	log     *slog.Logger
	client  *mailgun.MailgunImpl
}

// NewMailgun creates an email sink.
// Returns nil if email is not enabled or not fully configured.
func NewMailgun(cfg config.EmailConfig, timeout time.Duration, log *slog.Logger) *Mailgun {
	if !cfg.IsConfigured() {
		return nil
	}
	return &Mailgun{
		cfg:     cfg,
		timeout: timeout,
		log:     log.With(logger.Scope("notify.mailgun")),
		client:  mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey),
	}
}

// Notify sends title as the subject and body as the text part
func (m *Mailgun) Notify(ctx context.Context, title, body string) Result {
	from := fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromEmail)
	message := m.client.NewMessage(from, title, body, m.cfg.ToEmail)

	sendCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, messageID, err := m.client.Send(sendCtx, message)
	if err != nil {
		m.log.Debug("failed to send email",
			slog.String("to", m.cfg.ToEmail),
			logger.Error(err))
		return Failed(err.Error())
	}

	m.log.Debug("email sent",
		slog.String("to", m.cfg.ToEmail),
		slog.String("message_id", messageID))
	return Result{Success: true}
}
