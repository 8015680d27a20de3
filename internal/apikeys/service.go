package apikeys

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/leadbox/internal/auth"
	"github.com/wolfman30/leadbox/internal/observability/metrics"
	"github.com/wolfman30/leadbox/pkg/logging"
)

var tracer = otel.Tracer("leadbox.internal.apikeys")

// Service issues, rotates and resolves client API keys.
type Service struct {
	repo   Repository
	cache  Cache
	obs    *metrics.Metrics
	logger *logging.Logger
	now    func() time.Time
}

// NewService wires the key lifecycle. cache may be nil.
func NewService(repo Repository, cache Cache, obs *metrics.Metrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:   repo,
		cache:  cache,
		obs:    obs,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Generate creates a key for clientID and returns its plaintext once.
// Eligibility is checked by the request pipeline before this is called.
func (s *Service) Generate(ctx context.Context, clientID string, expiresAt time.Time) (*Issued, error) {
	ctx, span := tracer.Start(ctx, "apikeys.generate")
	defer span.End()
	span.SetAttributes(attribute.String("leadbox.client_id", clientID))

	sec, err := newSecret(randReader)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	key := &APIKey{
		ClientID:  clientID,
		KeyHash:   sec.hash,
		KeyPrefix: sec.prefix,
		ExpiresAt: expiresAt.UTC(),
	}
	if err := s.repo.Create(ctx, key); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("apikeys: store key: %w", err)
	}
	s.obs.ObserveAPIKey("generated")
	s.logger.Info("api key generated", "api_key_id", key.ID, "client_id", clientID, "prefix", key.KeyPrefix)
	return &Issued{APIKey: key, Key: sec.plain}, nil
}

// Toggle flips the revoked flag of key.
func (s *Service) Toggle(ctx context.Context, key *APIKey) (*APIKey, error) {
	updated, err := s.repo.ToggleRevoked(ctx, key.ID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, key.KeyHash)
	event := "activated"
	if updated.Revoked {
		event = "revoked"
	}
	s.obs.ObserveAPIKey(event)
	s.logger.Info("api key "+event, "api_key_id", key.ID, "client_id", key.ClientID)
	return updated, nil
}

// Regenerate replaces the secret and expiry of key and clears revocation.
func (s *Service) Regenerate(ctx context.Context, key *APIKey, expiresAt time.Time) (*Issued, error) {
	ctx, span := tracer.Start(ctx, "apikeys.regenerate")
	defer span.End()
	span.SetAttributes(attribute.String("leadbox.api_key_id", key.ID))

	sec, err := newSecret(randReader)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	updated, err := s.repo.Rotate(ctx, key.ID, sec.hash, sec.prefix, expiresAt.UTC())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.invalidate(ctx, key.KeyHash)
	s.obs.ObserveAPIKey("regenerated")
	s.logger.Info("api key regenerated", "api_key_id", key.ID, "client_id", key.ClientID, "prefix", updated.KeyPrefix)
	return &Issued{APIKey: updated, Key: sec.plain}, nil
}

// ListForClient returns key metadata for clientID.
func (s *Service) ListForClient(ctx context.Context, clientID string) ([]*APIKey, error) {
	return s.repo.ListByClient(ctx, clientID)
}

// Resolve maps a plaintext key to its record, rejecting unknown, revoked
// and expired keys.
func (s *Service) Resolve(ctx context.Context, plain string) (*APIKey, error) {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return nil, ErrKeyMissing
	}
	hash := HashKey(plain)

	key := s.cached(ctx, hash)
	if key == nil {
		var err error
		key, err = s.repo.GetByHash(ctx, hash)
		if err != nil {
			if errors.Is(err, ErrKeyNotFound) {
				s.obs.ObserveAPIKey("rejected")
				return nil, ErrKeyInvalid
			}
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, s.now()); err != nil {
				s.logger.Warn("api key cache set failed", "error", err)
			} else if key, err = s.confirmCached(ctx, key); err != nil {
				return nil, err
			}
		}
	}

	switch {
	case key.Revoked:
		s.obs.ObserveAPIKey("rejected")
		return nil, ErrKeyRevoked
	case key.Expired(s.now()):
		s.obs.ObserveAPIKey("rejected")
		return nil, ErrKeyExpired
	}
	return key, nil
}

// Authenticate resolves a plaintext key to the owning client's identity.
func (s *Service) Authenticate(ctx context.Context, plain string) (auth.Identity, error) {
	key, err := s.Resolve(ctx, plain)
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{UserID: key.ClientID, Role: auth.RoleClient, APIKeyID: key.ID}, nil
}

func (s *Service) cached(ctx context.Context, hash string) *APIKey {
	if s.cache == nil {
		return nil
	}
	key, err := s.cache.Get(ctx, hash)
	if err != nil {
		s.logger.Warn("api key cache get failed", "error", err)
		return nil
	}
	return key
}

// confirmCached re-reads key after it was written to the cache. A toggle or
// rotation that landed between the first read and the cache write has
// already run its invalidate, so the stale entry is dropped here and the
// fresh row is used instead.
func (s *Service) confirmCached(ctx context.Context, key *APIKey) (*APIKey, error) {
	fresh, err := s.repo.GetByHash(ctx, key.KeyHash)
	if err != nil {
		s.invalidate(ctx, key.KeyHash)
		if errors.Is(err, ErrKeyNotFound) {
			s.obs.ObserveAPIKey("rejected")
			return nil, ErrKeyInvalid
		}
		return nil, err
	}
	if fresh.Revoked != key.Revoked || !fresh.ExpiresAt.Equal(key.ExpiresAt) || !fresh.UpdatedAt.Equal(key.UpdatedAt) {
		s.invalidate(ctx, key.KeyHash)
	}
	return fresh, nil
}

func (s *Service) invalidate(ctx context.Context, hash string) {
	if s.cache == nil || hash == "" {
		return
	}
	if err := s.cache.Delete(ctx, hash); err != nil {
		s.logger.Warn("api key cache delete failed", "error", err)
	}
}
