package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrichment carries the optional free-form details a contact may arrive
// with. Absent values are stored as empty strings.
type Enrichment struct {
	Title    string `json:"Title" bson:"Title"`
	Firm     string `json:"Firm" bson:"Firm"`
	Country  string `json:"Country" bson:"Country"`
	LinkedIn string `json:"LinkedIn URL" bson:"LinkedIn URL"`
}

// ContactInput is one element of the incoming contacts array.
type ContactInput struct {
	Email   string `json:"email" validate:"required"`
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
	Enrichment
}

// Contact is the document persisted in a campaign's contacts collection.
type Contact struct {
	ID             primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	UserId         string             `json:"user_id" bson:"user_id"`
	ConversationId string             `json:"conversation_id" bson:"conversation_id"`
	Name           string             `json:"name,omitempty" bson:"name,omitempty"`
	Email          string             `json:"email" bson:"email"`
	Company        string             `json:"company,omitempty" bson:"company,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	Enrichment     `bson:",inline"`
}

func NewContact(in ContactInput, userId, conversationId string, now time.Time) Contact {
	return Contact{
		UserId:         userId,
		ConversationId: conversationId,
		Name:           in.Name,
		Email:          in.Email,
		Company:        in.Company,
		CreatedAt:      now,
		Enrichment:     in.Enrichment,
	}
}

func (c *Contact) Recipient() Recipient {
	return Recipient{
		Name:    c.Name,
		Email:   c.Email,
		Company: c.Company,
	}
}
