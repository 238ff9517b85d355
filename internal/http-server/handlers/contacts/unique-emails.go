package contacts

import (
	"LeadIntake/entity"
	"LeadIntake/internal/lib/api/response"
	"LeadIntake/internal/lib/sl"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const (
	headerCampaign     = "campaign"
	headerUserId       = "user_id"
	headerConversation = "conversation_id"
)

// UniqueEmails stores the contacts of the batch that are new to the
// campaign and notifies them by email.
func UniqueEmails(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.contacts"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var payload entity.BatchPayload
		if err := render.DecodeJSON(r.Body, &payload); err != nil && !errors.Is(err, io.EOF) {
			logger.Warn("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		req := entity.BatchRequest{
			CampaignID:     r.Header.Get(headerCampaign),
			UserID:         r.Header.Get(headerUserId),
			ConversationID: r.Header.Get(headerConversation),
			Payload:        payload,
		}
		logger = logger.With(
			slog.String("campaign", req.CampaignID),
			slog.Int("contacts", len(payload.Contacts)),
		)

		result, err := handler.HandleBatch(r.Context(), req)
		if err != nil {
			var validationErr *entity.ValidationError
			switch {
			case errors.As(err, &validationErr):
				logger.Debug("rejected batch", sl.Err(err))
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error(validationErr.Message))
			case errors.Is(err, entity.ErrDuplicateContact):
				logger.Warn("duplicate contacts", sl.Err(err))
				render.Status(r, http.StatusCreated)
				render.JSON(w, r, []struct{}{})
			default:
				logger.Error("handle batch", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("Internal server error"))
			}
			return
		}

		render.JSON(w, r, response.Ok(result.Message, result.Campaign, result.Inserted))
	}
}
