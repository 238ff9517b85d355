package response

// ErrorBody is the payload of every non-2xx JSON reply.
type ErrorBody struct {
	Error string `json:"error"`
}

func Error(msg string) ErrorBody {
	return ErrorBody{Error: msg}
}

// Batch is the reply of a handled contact batch. Campaign is omitted by the
// single-database variant and Inserted when nothing was new.
type Batch struct {
	Message  string `json:"message"`
	Campaign string `json:"campaign,omitempty"`
	Inserted *int   `json:"inserted,omitempty"`
}

func Ok(message, campaign string, inserted *int) Batch {
	return Batch{
		Message:  message,
		Campaign: campaign,
		Inserted: inserted,
	}
}
