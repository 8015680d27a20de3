package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/leadbox/internal/auth"
	"github.com/wolfman30/leadbox/internal/validation"
)

// SeedAdmin creates the admin account if no account uses email yet. Admins
// are never self-registered, so this is the only way one comes to exist.
// The returned bool reports whether a new account was created.
func SeedAdmin(ctx context.Context, repo Repository, name, email, password string) (*User, bool, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, false, errors.New("users: admin email and password are required")
	}

	existing, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != auth.RoleAdmin {
			return nil, false, fmt.Errorf("users: %s already belongs to a %s account", email, existing.Role)
		}
		return existing, false, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, false, fmt.Errorf("users: lookup admin: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	admin := &User{
		Name:            strings.TrimSpace(name),
		Email:           email,
		PasswordHash:    hash,
		Role:            auth.RoleAdmin,
		IsEmailVerified: true,
	}
	if err := repo.Create(ctx, admin); err != nil {
		return nil, false, fmt.Errorf("users: create admin: %w", err)
	}
	return admin, true, nil
}
