package leads

import "github.com/wolfman30/leadbox/internal/apperr"

var (
	// ErrLeadNotFound is returned when a lead is missing or owned by someone else
	ErrLeadNotFound = apperr.NotFound("Lead not found or unauthorized")

	// ErrInvalidLeadID is returned when the path id is not a uuid
	ErrInvalidLeadID = apperr.BadRequest("Invalid lead ID format")

	// ErrNoValidFields is returned when an update would change nothing
	ErrNoValidFields = apperr.BadRequest("No valid fields provided for update")
)
