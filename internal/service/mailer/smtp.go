package mailer

import (
	"LeadIntake/internal/config"
	"LeadIntake/internal/lib/sl"
	"context"
	"fmt"
	"log/slog"

	"github.com/go-gomail/gomail"
)

type dialSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Smtp struct {
	dialer   dialSender
	from     string
	fromName string
	log      *slog.Logger
}

func NewSmtp(conf *config.Config, logger *slog.Logger) *Smtp {
	smtp := conf.Mail.Smtp
	return &Smtp{
		dialer:   gomail.NewDialer(smtp.Host, smtp.Port, smtp.User, smtp.Password),
		from:     conf.Mail.From,
		fromName: conf.Mail.FromName,
		log:      logger.With(sl.Module("smtp")),
	}
}

func (s *Smtp) message(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	if msg.Name != "" {
		m.SetAddressHeader("To", msg.To, msg.Name)
	} else {
		m.SetHeader("To", msg.To)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return m
}

// Send opens a connection per message. gomail has no context support, so
// ctx is only checked before dialing.
func (s *Smtp) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.message(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	s.log.With(slog.String("to", msg.To)).Debug("smtp message sent")
	return nil
}
