package users

import (
	"time"

	"github.com/wolfman30/leadbox/internal/auth"
)

// User is an admin or client account.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            auth.Role `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// IsClient reports whether the account has the client role.
func (u *User) IsClient() bool {
	return u != nil && u.Role == auth.RoleClient
}

// LoginResult is returned by both login endpoints.
type LoginResult struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	User      *User  `json:"user"`
}
