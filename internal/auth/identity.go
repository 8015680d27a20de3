package auth

import "context"

// Role is the access level carried in every bearer token.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClient
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID string
	Role   Role
	// APIKeyID is set when the caller authenticated with an API key rather
	// than a bearer token.
	APIKeyID string
}

type ctxKey string

const identityKey ctxKey = "leadbox.identity"

// WithIdentity stores the caller in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the caller if present.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}
