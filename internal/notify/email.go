package notify

import (
	"context"

	"github.com/wolfman30/leadbox/pkg/logging"
)

// EmailSender delivers a rendered message. SendGrid, SES and the stub all
// satisfy it.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one outbound account email.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string // plain text
	HTML    string
	// Category tags the message for provider analytics, e.g. "verification".
	Category string
}

// DefaultFromName is used when no sender name is configured.
const DefaultFromName = "Leadbox"

// StubEmailSender logs messages instead of delivering them. It backs
// EMAIL_PROVIDER=stub and local runs.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("stub email sender: message not delivered",
		"to", msg.To,
		"subject", msg.Subject,
		"category", msg.Category,
	)
	return nil
}

var _ EmailSender = (*StubEmailSender)(nil)
