package notify

import (
	"LeadIntake/entity"
	"LeadIntake/internal/lib/sl"
	"LeadIntake/internal/service/mailer"
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Report counts the outcome of one dispatch round.
type Report struct {
	Sent    int
	Failed  int
	Skipped int
}

type Dispatcher struct {
	sender mailer.Sender
	limit  int
	log    *slog.Logger
}

func NewDispatcher(sender mailer.Sender, limit int, logger *slog.Logger) *Dispatcher {
	if limit < 1 {
		limit = 1
	}
	return &Dispatcher{
		sender: sender,
		limit:  limit,
		log:    logger.With(sl.Module("notify")),
	}
}

// DispatchAll sends the same message to every recipient and waits for all
// attempts to settle. A failed send is logged and never affects the others.
func (d *Dispatcher) DispatchAll(ctx context.Context, recipients []entity.Recipient, subject, text string) Report {
	var sent, failed, skipped atomic.Int32

	g := errgroup.Group{}
	g.SetLimit(d.limit)

	for _, recipient := range recipients {
		recipient := recipient
		g.Go(func() error {
			logger := d.log.With(
				slog.String("dispatch_id", uuid.NewString()),
				slog.String("to", recipient.Email),
			)

			to := strings.ToLower(strings.TrimSpace(recipient.Email))
			if to == "" {
				skipped.Add(1)
				logger.Warn("recipient without email")
				return nil
			}

			err := d.sender.Send(ctx, mailer.Message{
				To:      to,
				Name:    recipient.Name,
				Subject: subject,
				Text:    text,
				HTML:    text,
			})
			if err != nil {
				failed.Add(1)
				logger.With(sl.Err(err)).Error("email send failed")
				return nil
			}
			sent.Add(1)
			logger.Info("email sent")
			return nil
		})
	}
	_ = g.Wait()

	return Report{
		Sent:    int(sent.Load()),
		Failed:  int(failed.Load()),
		Skipped: int(skipped.Load()),
	}
}
