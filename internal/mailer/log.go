package mailer

import (
	"context"

	"github.com/Skotchmaster/contacts_api/internal/logging"
)

// LogSender writes the email link to the log instead of delivering it.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	if _, err := msg.info(); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("email_logged",
		"to", msg.ToEmail,
		"username", msg.ToUsername,
		"subject", msg.Subject(),
		"link", msg.Link(),
	)
	return nil
}
