package mailer

import (
	"LeadIntake/internal/config"
	"context"
	"fmt"
	"log/slog"
)

type Message struct {
	To      string
	Name    string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the sender of the configured provider.
func New(conf *config.Config, logger *slog.Logger) (Sender, error) {
	switch conf.Mail.Provider {
	case "", "sendgrid":
		return NewSendGrid(conf, logger), nil
	case "smtp":
		return NewSmtp(conf, logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", conf.Mail.Provider)
	}
}
