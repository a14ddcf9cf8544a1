package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer writes messages to the structured log instead of delivering them. It backs
// MAIL_PROVIDER=log for local development.
type LogMailer struct {
	logger *zap.Logger
}

var _ Mailer = (*LogMailer)(nil)

// NewLogMailer constructs the mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("mail (log provider)",
		zap.String("to", msg.To.String()),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text))
	return nil
}
