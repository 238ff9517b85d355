package entity

// Recipient is the part of a stored contact the notification needs.
type Recipient struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
}
