package repository

import (
	"LeadIntake/entity"
	"LeadIntake/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const contactsCollection = "contacts"

// ContactStore is the schema-bound accessor of one campaign's contacts.
type ContactStore struct {
	collection *mongo.Collection
	log        *slog.Logger
}

// Contacts returns the contact store of the campaign, binding it and
// ensuring its unique email index on first use.
func (m *MongoDB) Contacts(ctx context.Context, campaignID string) (*ContactStore, error) {
	m.mu.RLock()
	store, ok := m.contacts[campaignID]
	m.mu.RUnlock()
	if ok {
		return store, nil
	}

	v, err, _ := m.group.Do("contacts:"+campaignID, func() (interface{}, error) {
		m.mu.RLock()
		cached, ok := m.contacts[campaignID]
		m.mu.RUnlock()
		if ok {
			return cached, nil
		}

		connection, err := m.Connection(ctx, campaignID)
		if err != nil {
			return nil, err
		}
		storeName, err := m.registry.Resolve(campaignID)
		if err != nil {
			return nil, err
		}

		store := &ContactStore{
			collection: connection.Database(storeName).Collection(contactsCollection),
			log: m.log.With(
				slog.String("campaign", campaignID),
				slog.String("collection", contactsCollection),
			),
		}

		indexCtx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		if err = store.ensureIndexes(indexCtx); err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.contacts[campaignID] = store
		m.mu.Unlock()
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ContactStore), nil
}

func (s *ContactStore) ensureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	}
	if _, err := s.collection.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("mongodb create index error: %w", err)
	}
	return nil
}

// ExistingEmails returns the subset of emails already stored.
func (s *ContactStore) ExistingEmails(ctx context.Context, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	filter := bson.D{{Key: "email", Value: bson.D{{Key: "$in", Value: emails}}}}
	opts := options.Find().SetProjection(bson.D{{Key: "email", Value: 1}, {Key: "_id", Value: 0}})

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		Email string `bson:"email"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb decode error: %w", err)
	}

	existing := make([]string, 0, len(docs))
	for _, doc := range docs {
		existing = append(existing, doc.Email)
	}
	return existing, nil
}

// InsertMany stores the contacts as an unordered batch and returns the ones
// that were written. Records rejected by the unique email index are dropped
// from the result; if every record was rejected entity.ErrDuplicateContact is
// returned. Any other write failure is returned as an error.
func (s *ContactStore) InsertMany(ctx context.Context, contacts []entity.Contact) ([]entity.Contact, error) {
	if len(contacts) == 0 {
		return nil, nil
	}

	docs := make([]interface{}, len(contacts))
	for i := range contacts {
		if contacts[i].ID.IsZero() {
			contacts[i].ID = primitive.NewObjectID()
		}
		docs[i] = contacts[i]
	}

	_, err := s.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return contacts, nil
	}

	failed, err := duplicateIndexes(err)
	if err != nil {
		return nil, err
	}

	inserted := make([]entity.Contact, 0, len(contacts)-len(failed))
	for i, contact := range contacts {
		if _, skip := failed[i]; skip {
			s.log.With(slog.String("email", contact.Email)).Debug("contact already stored")
			continue
		}
		inserted = append(inserted, contact)
	}
	if len(inserted) == 0 {
		return nil, entity.ErrDuplicateContact
	}

	s.log.With(
		slog.Int("inserted", len(inserted)),
		slog.Int("duplicates", len(failed)),
	).Warn("partial contacts insert")
	return inserted, nil
}

// duplicateIndexes returns the batch positions rejected for a duplicate key,
// or an error when the failure is anything else.
func duplicateIndexes(err error) (map[int]struct{}, error) {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		if mongo.IsDuplicateKeyError(err) {
			return nil, entity.ErrDuplicateContact
		}
		return nil, fmt.Errorf("mongodb insert error: %w", err)
	}
	if bwe.WriteConcernError != nil {
		return nil, fmt.Errorf("mongodb insert error: %w", err)
	}

	failed := make(map[int]struct{}, len(bwe.WriteErrors))
	for _, we := range bwe.WriteErrors {
		if !isDuplicateCode(we.Code) {
			return nil, fmt.Errorf("mongodb insert error: %w", err)
		}
		failed[we.Index] = struct{}{}
	}
	return failed, nil
}

func isDuplicateCode(code int) bool {
	return code == 11000 || code == 11001 || code == 12582
}

// ExistingEmails looks up stored emails in the campaign's contacts.
func (m *MongoDB) ExistingEmails(ctx context.Context, campaignID string, emails []string) ([]string, error) {
	store, err := m.Contacts(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return store.ExistingEmails(ctx, emails)
}

// InsertContacts stores new contacts in the campaign's contacts.
func (m *MongoDB) InsertContacts(ctx context.Context, campaignID string, contacts []entity.Contact) ([]entity.Contact, error) {
	store, err := m.Contacts(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	inserted, err := store.InsertMany(ctx, contacts)
	if err != nil && !errors.Is(err, entity.ErrDuplicateContact) {
		store.log.With(sl.Err(err)).Error("insert contacts")
	}
	return inserted, err
}
