package core

import (
	"LeadIntake/entity"
	"LeadIntake/internal/lib/sl"
	"LeadIntake/internal/lib/validate"
	"context"
	"errors"
	"fmt"
	"log/slog"
)

const (
	msgAlreadyExist = "All contacts already exist"
	msgInserted     = "Contacts inserted and emails sent"
)

// HandleBatch stores the contacts of the batch that the campaign does not
// have yet and mails each of them. Validation failures are returned as
// *entity.ValidationError before any I/O.
func (c *Core) HandleBatch(ctx context.Context, req entity.BatchRequest) (*entity.BatchResult, error) {
	campaignID, err := c.validate(&req)
	if err != nil {
		return nil, err
	}

	logger := c.log.With(
		slog.String("campaign", campaignID),
		slog.String("user_id", req.UserID),
		slog.String("conversation_id", req.ConversationID),
	)

	contacts := uniqueByEmail(req.Payload.Contacts)
	emails := make([]string, 0, len(contacts))
	for _, contact := range contacts {
		emails = append(emails, contact.Email)
	}

	existing, err := c.repo.ExistingEmails(ctx, campaignID, emails)
	if err != nil {
		return nil, fmt.Errorf("existing emails: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, email := range existing {
		known[email] = struct{}{}
	}

	now := c.now()
	fresh := make([]entity.Contact, 0, len(contacts))
	for _, contact := range contacts {
		if _, ok := known[contact.Email]; ok {
			continue
		}
		fresh = append(fresh, entity.NewContact(contact, req.UserID, req.ConversationID, now))
	}

	result := &entity.BatchResult{}
	if c.multiCampaign {
		result.Campaign = campaignID
	}

	if len(fresh) == 0 {
		logger.With(slog.Int("received", len(contacts))).Debug("no new contacts")
		result.Message = msgAlreadyExist
		return result, nil
	}

	// the batch runs to completion even if the client goes away
	ctx = context.WithoutCancel(ctx)

	inserted, err := c.repo.InsertContacts(ctx, campaignID, fresh)
	if err != nil {
		if errors.Is(err, entity.ErrDuplicateContact) {
			logger.With(sl.Err(err)).Warn("contacts inserted concurrently")
			return nil, err
		}
		return nil, fmt.Errorf("insert contacts: %w", err)
	}

	recipients := make([]entity.Recipient, 0, len(inserted))
	for i := range inserted {
		recipients = append(recipients, inserted[i].Recipient())
	}
	report := c.dispatcher.DispatchAll(ctx, recipients, req.Payload.Subject, req.Payload.Text)

	logger.With(
		slog.Int("received", len(contacts)),
		slog.Int("inserted", len(inserted)),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
	).Info("contacts batch handled")

	count := len(inserted)
	result.Message = msgInserted
	result.Inserted = &count
	return result, nil
}

// validate checks the request in a fixed order and returns the campaign
// the batch belongs to.
func (c *Core) validate(req *entity.BatchRequest) (string, error) {
	campaignID := c.defaultCampaign
	if c.multiCampaign {
		if req.CampaignID == "" {
			return "", entity.ErrMissingCampaign
		}
		campaignID = req.CampaignID
	}

	if req.UserID == "" || req.ConversationID == "" {
		return "", entity.ErrMissingIdentity
	}

	if _, err := c.registry.Resolve(campaignID); err != nil {
		return "", entity.ErrInvalidCampaign
	}

	if err := validate.Struct(&req.Payload); err != nil {
		if validate.FirstField(err) == "Email" {
			return "", entity.ErrMissingEmail
		}
		return "", entity.ErrMissingContacts
	}

	return campaignID, nil
}

// uniqueByEmail keeps the first contact of every email, in input order.
func uniqueByEmail(contacts []entity.ContactInput) []entity.ContactInput {
	seen := make(map[string]struct{}, len(contacts))
	unique := make([]entity.ContactInput, 0, len(contacts))
	for _, contact := range contacts {
		if _, ok := seen[contact.Email]; ok {
			continue
		}
		seen[contact.Email] = struct{}{}
		unique = append(unique, contact)
	}
	return unique
}
