package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// SendGridMailer delivers messages through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger *zap.Logger
}

var _ Mailer = (*SendGridMailer)(nil)

// NewSendGridMailer builds a mailer for the given API key and sender.
func NewSendGridMailer(apiKey, fromName, fromEmail string, logger *zap.Logger) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromEmail),
		logger: logger,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	to := sgmail.NewEmail(msg.To.Name, msg.To.Address)
	payload := sgmail.NewSingleEmail(m.from, msg.Subject, to, msg.Text, msg.HTML)

	res, err := m.client.SendWithContext(ctx, payload)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		m.logger.Warn("sendgrid rejected message",
			zap.Int("status", res.StatusCode),
			zap.String("body", res.Body),
			zap.String("subject", msg.Subject))
		return fmt.Errorf("sendgrid send: status %d", res.StatusCode)
	}
	m.logger.Info("mail sent",
		zap.String("to", MaskAddress(msg.To.Address)),
		zap.String("subject", msg.Subject),
		zap.String("message_id", http.Header(res.Headers).Get("X-Message-Id")))
	return nil
}
