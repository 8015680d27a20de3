package users

import "github.com/wolfman30/leadbox/internal/apperr"

var (
	// ErrUserNotFound is returned when no account matches the lookup.
	ErrUserNotFound = apperr.NotFound("User not found")

	// ErrEmailTaken is returned when registering an address that already exists.
	ErrEmailTaken = apperr.Conflict("Email already exists")

	// ErrInvalidCredentials covers unknown email, wrong password and wrong role.
	ErrInvalidCredentials = apperr.Unauthorized("Invalid credentials")

	// ErrEmailNotVerified is returned by client login when verification is required.
	ErrEmailNotVerified = apperr.Forbidden("Please verify your email before logging in")

	ErrVerificationExpired = apperr.Unauthorized("Verification link has expired")
	ErrVerificationInvalid = apperr.BadRequest("Invalid verification token")
	ErrAlreadyVerified     = apperr.Conflict("Email is already verified")

	ErrResetExpired = apperr.Unauthorized("Reset token has expired")
	ErrResetInvalid = apperr.BadRequest("Invalid reset token")
)
