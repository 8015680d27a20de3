package apikeys

import "github.com/wolfman30/leadbox/internal/apperr"

var (
	// ErrKeyNotFound is returned when no key matches the id
	ErrKeyNotFound = apperr.NotFound("API key not found")

	// ErrInvalidKeyID is returned when the path id is not a uuid
	ErrInvalidKeyID = apperr.BadRequest("Invalid API key ID format")

	// ErrInvalidClientID is returned when the client path id is not a uuid
	ErrInvalidClientID = apperr.BadRequest("Invalid client ID format")

	ErrKeyMissing = apperr.Unauthorized("API key is required")
	ErrKeyInvalid = apperr.Unauthorized("Invalid API key")
	ErrKeyRevoked = apperr.Unauthorized("API key revoked")
	ErrKeyExpired = apperr.Unauthorized("API key expired")
)
