package core

import (
	"LeadIntake/entity"
	"LeadIntake/internal/lib/sl"
	"LeadIntake/internal/service/notify"
	"context"
	"log/slog"
	"time"
)

type Registry interface {
	Resolve(campaignID string) (string, error)
}

type Repository interface {
	ExistingEmails(ctx context.Context, campaignID string, emails []string) ([]string, error)
	InsertContacts(ctx context.Context, campaignID string, contacts []entity.Contact) ([]entity.Contact, error)
}

type Dispatcher interface {
	DispatchAll(ctx context.Context, recipients []entity.Recipient, subject, text string) notify.Report
}

type Core struct {
	registry        Registry
	repo            Repository
	dispatcher      Dispatcher
	multiCampaign   bool
	defaultCampaign string
	now             func() time.Time
	log             *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		log: log.With(sl.Module("core")),
		now: time.Now,
	}
}

func (c *Core) SetRegistry(registry Registry) {
	c.registry = registry
}

func (c *Core) SetRepository(repo Repository) {
	c.repo = repo
}

func (c *Core) SetDispatcher(dispatcher Dispatcher) {
	c.dispatcher = dispatcher
}

// SetMultiCampaign switches campaign routing on. When off every request
// goes to defaultCampaign and the campaign header is ignored.
func (c *Core) SetMultiCampaign(multi bool, defaultCampaign string) {
	c.multiCampaign = multi
	c.defaultCampaign = defaultCampaign
}

func (c *Core) MultiCampaign() bool {
	return c.multiCampaign
}
