package users

import (
	"context"
	"errors"
	"strings"

	"github.com/wolfman30/leadbox/internal/validation"
)

// RegisterInput is the body of POST /api/users/client/register.
type RegisterInput struct {
	Name            string `json:"name" validate:"required,min=3,max=50,personname"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,eq=client"`
}

var registerMessages = validation.Messages{
	"name.required":            "Name is required",
	"name.min":                 "Name must be between 3 and 50 characters",
	"name.max":                 "Name must be between 3 and 50 characters",
	"name.personname":          "Name must contain only alphabetic characters",
	"email.required":           "Email is required",
	"email.email":              "Please provide a valid email",
	"password.required":        "Password is required",
	"password.min":             "Password must be at least 8 characters long",
	"password.strongpassword":  "Password must contain at least one uppercase letter, one lowercase letter, and one number",
	"confirmPassword.required": "Please confirm your password",
	"confirmPassword.eqfield":  "Passwords do not match",
	"role":                     "Invalid role for registration",
}

// LoginInput is the body of both login endpoints.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var loginMessages = validation.Messages{
	"email.required":    "Email is required",
	"email.email":       "Please provide a valid email",
	"password.required": "Password is required",
}

// EmailInput is the body of forgot-password and resend-verification. The
// account it names is resolved during validation.
type EmailInput struct {
	Email string `json:"email" validate:"required,email"`

	user *User
}

var emailMessages = validation.Messages{
	"email.required": "Email is required",
	"email.email":    "Please provide a valid email address",
}

// ResetInput is the body of POST /api/password/reset-password/{token}.
type ResetInput struct {
	Password        string `json:"password" validate:"required,min=8,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`

	token  string
	userID string
}

var resetMessages = validation.Messages{
	"password.required":        "Password is required",
	"password.min":             "Password must be at least 8 characters long",
	"password.strongpassword":  "Password must contain at least one uppercase letter, one lowercase letter, and one number",
	"confirmPassword.required": "Please confirm your password",
	"confirmPassword.eqfield":  "Passwords do not match",
}

func normalizeRegister(_ context.Context, in *RegisterInput, _ *validation.Errors) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = validation.NormalizeEmail(in.Email)
	in.Role = strings.TrimSpace(in.Role)
	return nil
}

func normalizeLogin(_ context.Context, in *LoginInput, _ *validation.Errors) error {
	in.Email = validation.NormalizeEmail(in.Email)
	return nil
}

func normalizeEmail(_ context.Context, in *EmailInput, _ *validation.Errors) error {
	in.Email = validation.NormalizeEmail(in.Email)
	return nil
}

// emailAvailable fails registration for an address already on file.
func emailAvailable(repo Repository) validation.Check[RegisterInput] {
	return func(ctx context.Context, in *RegisterInput, errs *validation.Errors) error {
		if errs.Has("email") {
			return nil
		}
		_, err := repo.GetByEmail(ctx, in.Email)
		switch {
		case err == nil:
			errs.Add("email", "Email already exists")
		case !errors.Is(err, ErrUserNotFound):
			return err
		}
		return nil
	}
}

// accountExists resolves the account named by the email field.
func accountExists(repo Repository) validation.Check[EmailInput] {
	return func(ctx context.Context, in *EmailInput, errs *validation.Errors) error {
		if errs.Has("email") {
			return nil
		}
		user, err := repo.GetByEmail(ctx, in.Email)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				errs.Add("email", "No account found with this email address")
				return nil
			}
			return err
		}
		in.user = user
		return nil
	}
}

// resetTokenValid rejects the whole request (not a field) when the token
// is expired or forged.
func resetTokenValid(svc *Service) validation.Check[ResetInput] {
	return func(_ context.Context, in *ResetInput, _ *validation.Errors) error {
		userID, err := svc.ResolveResetToken(in.token)
		if err != nil {
			return err
		}
		in.userID = userID
		return nil
	}
}
