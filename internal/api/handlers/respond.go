package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/whisperbox/whisperbox-be/internal/apperr"
)

// Every endpoint answers with a success flag and a human-readable message;
// clients are not expected to infer the outcome from the status code alone.

type simpleResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respond(w http.ResponseWriter, status int, success bool, message string) {
	writeJSON(w, status, simpleResponse{Success: success, Message: message})
}

// respondError maps a service error to its status code and a client-facing
// message. Errors without an explicit message collapse into a generic reply,
// internal detail never reaches the client.
func respondError(w http.ResponseWriter, err error, messages map[error]string) {
	status := apperr.Status(err)
	for sentinel, msg := range messages {
		if errors.Is(err, sentinel) {
			respond(w, status, false, msg)
			return
		}
	}
	if status == http.StatusInternalServerError {
		respond(w, status, false, "Internal server error")
		return
	}
	respond(w, status, false, "Request failed")
}

// decodeBody parses a JSON request body into a static payload struct,
// rejecting unknown fields before any business logic runs.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// validationMessage turns the first validator failure into a readable reply.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid value for field %q", strings.ToLower(fe.Field()))
	}
	return "Invalid request body"
}
