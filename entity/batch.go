package entity

// BatchPayload is the JSON body of a contact batch submission.
type BatchPayload struct {
	Contacts []ContactInput `json:"contacts" validate:"required,min=1,dive"`
	Subject  string         `json:"subject"`
	Text     string         `json:"text"`
}

// BatchRequest is a submission together with the identity headers it came
// with.
type BatchRequest struct {
	CampaignID     string
	UserID         string
	ConversationID string
	Payload        BatchPayload
}

// BatchResult reports a handled batch. Inserted is nil when every contact
// was already stored, Campaign is empty in single database mode.
type BatchResult struct {
	Message  string
	Campaign string
	Inserted *int
}
