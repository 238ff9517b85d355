package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"LeadIntake/entity"
	"LeadIntake/internal/service/mailer"

	"github.com/stretchr/testify/assert"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []mailer.Message
	SendFunc func(ctx context.Context, msg mailer.Message) error
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	f.mu.Lock()
	f.messages = append(f.messages, msg)
	f.mu.Unlock()
	if f.SendFunc != nil {
		return f.SendFunc(ctx, msg)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatchAllLowercasesAndReusesText(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, 4, discardLogger())

	report := d.DispatchAll(context.Background(), []entity.Recipient{
		{Name: "Ann", Email: "Ann@X.com"},
	}, "Subject", "<p>body</p>")

	assert.Equal(t, Report{Sent: 1}, report)
	assert.Equal(t, []mailer.Message{{
		To:      "ann@x.com",
		Name:    "Ann",
		Subject: "Subject",
		Text:    "<p>body</p>",
		HTML:    "<p>body</p>",
	}}, sender.messages)
}

func TestDispatchAllIsolatesFailures(t *testing.T) {
	sender := &fakeSender{SendFunc: func(_ context.Context, msg mailer.Message) error {
		if msg.To == "bad@x.com" {
			return errors.New("mailbox unavailable")
		}
		return nil
	}}
	d := NewDispatcher(sender, 2, discardLogger())

	report := d.DispatchAll(context.Background(), []entity.Recipient{
		{Email: "a@x.com"},
		{Email: "bad@x.com"},
		{Email: "c@x.com"},
		{Email: "  "},
	}, "s", "t")

	assert.Equal(t, Report{Sent: 2, Failed: 1, Skipped: 1}, report)
	assert.Len(t, sender.messages, 3)
}

func TestDispatchAllRunsConcurrentlyAndWaits(t *testing.T) {
	var inFlight, peak atomic.Int32
	var done atomic.Int32
	sender := &fakeSender{SendFunc: func(_ context.Context, _ mailer.Message) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		done.Add(1)
		return nil
	}}
	d := NewDispatcher(sender, 3, discardLogger())

	recipients := make([]entity.Recipient, 9)
	for i := range recipients {
		recipients[i] = entity.Recipient{Email: "r@x.com"}
	}
	report := d.DispatchAll(context.Background(), recipients, "s", "t")

	assert.Equal(t, 9, report.Sent)
	assert.Equal(t, int32(9), done.Load())
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Greater(t, peak.Load(), int32(1))
}

func TestDispatchAllEmpty(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, 0, discardLogger())
	assert.Equal(t, Report{}, d.DispatchAll(context.Background(), nil, "s", "t"))
}
