package apikeys

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/leadbox/internal/users"
	"github.com/wolfman30/leadbox/internal/validation"
)

// ClientLookup finds accounts by id.
type ClientLookup interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// Expiry is the expiresAt body field shared by generate and regenerate.
type Expiry struct {
	ExpiresAt string `json:"expiresAt"`

	at time.Time
}

// At is the parsed expiry once validation has passed.
func (e *Expiry) At() time.Time { return e.at }

var expiryLayouts = []string{time.RFC3339Nano, "2006-01-02"}

func (e *Expiry) check(now time.Time, errs *validation.Errors) {
	raw := strings.TrimSpace(e.ExpiresAt)
	if raw == "" {
		errs.Add("expiresAt", "Expiration date is required")
		return
	}
	var (
		at  time.Time
		err error
	)
	for _, layout := range expiryLayouts {
		if at, err = time.Parse(layout, raw); err == nil {
			break
		}
	}
	switch {
	case err != nil:
		errs.Add("expiresAt", "Invalid date format. Please use ISO 8601 format (YYYY-MM-DD)")
	case !at.After(now):
		errs.Add("expiresAt", "Expiration date must be in the future")
	case at.After(now.AddDate(1, 0, 0)):
		errs.Add("expiresAt", "Expiration date cannot be more than 1 year from now")
	default:
		e.at = at.UTC()
	}
}

// GenerateInput is the body of POST /api/apikey/{clientId} plus the client
// it resolved to.
type GenerateInput struct {
	Expiry

	clientID string
	client   *users.User
}

// KeyInput addresses an existing key, with an expiry for regenerate.
type KeyInput struct {
	Expiry

	keyID string
	key   *APIKey
}

// eligibleClient requires an existing, verified client with no unexpired
// key.
func eligibleClient(clients ClientLookup, repo Repository, now func() time.Time) validation.Check[GenerateInput] {
	return func(ctx context.Context, in *GenerateInput, errs *validation.Errors) error {
		if _, err := uuid.Parse(in.clientID); err != nil {
			errs.Add("clientId", "Invalid client ID format")
			return nil
		}
		client, err := clients.GetByID(ctx, in.clientID)
		switch {
		case errors.Is(err, users.ErrUserNotFound):
			errs.Add("clientId", "Client not found or not verified")
			return nil
		case err != nil:
			return err
		case !client.IsClient() || !client.IsEmailVerified:
			errs.Add("clientId", "Client not found or not verified")
			return nil
		}

		active, err := repo.HasUnexpired(ctx, client.ID, now())
		if err != nil {
			return err
		}
		if active {
			errs.Add("clientId", "Client already has an active API key")
			return nil
		}
		in.client = client
		return nil
	}
}

func generateExpiry(now func() time.Time) validation.Check[GenerateInput] {
	return func(_ context.Context, in *GenerateInput, errs *validation.Errors) error {
		in.check(now(), errs)
		return nil
	}
}

func keyExpiry(now func() time.Time) validation.Check[KeyInput] {
	return func(_ context.Context, in *KeyInput, errs *validation.Errors) error {
		in.check(now(), errs)
		return nil
	}
}

// existingKey resolves the {apiKeyId} path parameter. A malformed or
// unknown id rejects the request.
func existingKey(repo Repository) validation.Check[KeyInput] {
	return func(ctx context.Context, in *KeyInput, _ *validation.Errors) error {
		if _, err := uuid.Parse(in.keyID); err != nil {
			return ErrInvalidKeyID
		}
		key, err := repo.GetByID(ctx, in.keyID)
		if err != nil {
			return err
		}
		in.key = key
		return nil
	}
}
