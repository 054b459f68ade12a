package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/whisperbox/whisperbox-be/internal/apperr"
	"github.com/whisperbox/whisperbox-be/internal/auth"
	"github.com/whisperbox/whisperbox-be/internal/models"
	"github.com/whisperbox/whisperbox-be/internal/services"
)

// MessageHandler handles HTTP requests for the per-user mailbox.
type MessageHandler struct {
	service  services.MessageServiceProvider
	validate *validator.Validate
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(service services.MessageServiceProvider) *MessageHandler {
	return &MessageHandler{service: service, validate: validator.New()}
}

// SendPayload defines the structure for anonymous send requests.
type SendPayload struct {
	Username string `json:"username" validate:"required"`
	Content  string `json:"content" validate:"required,min=10,max=300"`
}

// AcceptPayload defines the structure for accept-flag updates. The pointer
// keeps an explicit false distinguishable from an absent field.
type AcceptPayload struct {
	AcceptMessages *bool `json:"acceptMessages" validate:"required"`
}

type acceptResponse struct {
	Success            bool   `json:"success"`
	Message            string `json:"message,omitempty"`
	IsAcceptingMessage bool   `json:"isAcceptingMessage"`
}

type messagesResponse struct {
	Success  bool             `json:"success"`
	Messages []models.Message `json:"messages"`
}

// SendMessage appends an anonymous message to a user's mailbox.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var payload SendPayload
	if err := decodeBody(r, &payload); err != nil {
		respond(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	payload.Content = strings.TrimSpace(payload.Content)
	if err := h.validate.Struct(payload); err != nil {
		respond(w, http.StatusBadRequest, false, "Message must be between 10 and 300 characters")
		return
	}

	if _, err := h.service.Send(payload.Username, payload.Content); err != nil {
		if apperr.Status(err) == http.StatusInternalServerError {
			log.Error().Err(err).Str("username", payload.Username).Msg("Failed to store message")
		}
		respondError(w, err, map[error]string{
			apperr.ErrNotFound:     "User not found",
			apperr.ErrNotAccepting: "User is not accepting messages",
			apperr.ErrValidation:   "Message must be between 10 and 300 characters",
		})
		return
	}

	respond(w, http.StatusOK, true, "Message sent successfully")
}

// GetMessages lists the authenticated owner's messages newest first.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, false, "Not authenticated")
		return
	}
	if uuid.Validate(claims.UserID) != nil {
		respond(w, http.StatusBadRequest, false, "Invalid user ID format")
		return
	}

	messages, err := h.service.List(claims.UserID)
	if err != nil {
		if apperr.Status(err) == http.StatusInternalServerError {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to list messages")
		}
		respondError(w, err, map[error]string{
			apperr.ErrNotFound: "User not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, messagesResponse{Success: true, Messages: messages})
}

// DeleteMessage removes a single message from the owner's mailbox.
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, false, "Not authenticated")
		return
	}

	messageID := chi.URLParam(r, "id")
	if uuid.Validate(messageID) != nil {
		respond(w, http.StatusBadRequest, false, "Invalid message ID format")
		return
	}
	if uuid.Validate(claims.UserID) != nil {
		respond(w, http.StatusBadRequest, false, "Invalid user ID format")
		return
	}

	if err := h.service.Delete(claims.UserID, messageID); err != nil {
		if apperr.Status(err) == http.StatusInternalServerError {
			log.Error().Err(err).Str("message_id", messageID).Msg("Failed to delete message")
		}
		respondError(w, err, map[error]string{
			apperr.ErrNotFound:       "User or message not found",
			apperr.ErrAlreadyDeleted: "Message was already deleted",
		})
		return
	}

	respond(w, http.StatusOK, true, "Message deleted successfully")
}

// GetAccepting returns the owner's accept-messages flag.
func (h *MessageHandler) GetAccepting(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, false, "Not authenticated")
		return
	}

	accepting, err := h.service.GetAccepting(claims.UserID)
	if err != nil {
		if apperr.Status(err) == http.StatusInternalServerError {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to read accept flag")
		}
		respondError(w, err, map[error]string{
			apperr.ErrNotFound: "User not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, acceptResponse{Success: true, IsAcceptingMessage: accepting})
}

// SetAccepting updates the owner's accept-messages flag.
func (h *MessageHandler) SetAccepting(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respond(w, http.StatusUnauthorized, false, "Not authenticated")
		return
	}

	var payload AcceptPayload
	if err := decodeBody(r, &payload); err != nil {
		respond(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		respond(w, http.StatusBadRequest, false, validationMessage(err))
		return
	}

	accepting, err := h.service.SetAccepting(claims.UserID, *payload.AcceptMessages)
	if err != nil {
		if apperr.Status(err) == http.StatusInternalServerError {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to update accept flag")
		}
		respondError(w, err, map[error]string{
			apperr.ErrNotFound: "User not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, acceptResponse{
		Success:            true,
		Message:            "Message acceptance status updated successfully",
		IsAcceptingMessage: accepting,
	})
}
