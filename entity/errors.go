package entity

import "errors"

// ErrDuplicateContact is returned when none of the records of an insert
// could be stored because their email is already taken.
var ErrDuplicateContact = errors.New("duplicate contact email")

// ValidationError is a rejected request; Message is safe to return to the
// client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrMissingCampaign = &ValidationError{Message: "Missing campaign header"}
	ErrMissingIdentity = &ValidationError{Message: "Missing user_id or conversation_id header"}
	ErrInvalidCampaign = &ValidationError{Message: "Invalid campaign"}
	ErrMissingContacts = &ValidationError{Message: "Contacts array is required"}
	ErrMissingEmail    = &ValidationError{Message: "Each contact must have an email"}
)
