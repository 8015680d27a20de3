// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/leadbox/internal/apperr"
	"github.com/wolfman30/leadbox/internal/validation"
	"github.com/wolfman30/leadbox/pkg/logging"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a successful envelope.
func OK(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// List writes a successful envelope with a count.
func List(w http.ResponseWriter, message string, data any, count int) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data, Count: &count})
}

// Fail writes an unsuccessful envelope with a message only.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

// Invalid writes the single 400 response for a failed validation pipeline.
func Invalid(w http.ResponseWriter, errs validation.Errors) {
	JSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Message: "Validation failed",
		Errors:  errs,
	})
}

// Error maps err onto the envelope. Unclassified errors are logged and
// reported as a generic 500 so internals never reach the client.
func Error(w http.ResponseWriter, logger *logging.Logger, err error) {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		Invalid(w, fieldErrs)
		return
	}
	if e, ok := apperr.As(err); ok && e.Kind != apperr.KindInternal {
		Fail(w, e.Kind.Status(), e.Message)
		return
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger.Error("request failed", "error", err)
	message := "Internal server error"
	if e, ok := apperr.As(err); ok && e.Message != "" {
		message = e.Message
	}
	Fail(w, http.StatusInternalServerError, message)
}

// DecodeJSON reads a JSON body into dst. A malformed body is a bad request.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errMalformedBody
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errMalformedBody.Wrap(err)
	}
	return nil
}

var errMalformedBody = apperr.BadRequest("Invalid request body")
