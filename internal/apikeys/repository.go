package apikeys

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateHash is returned when a generated secret collides with a
// stored one.
var ErrDuplicateHash = errors.New("apikeys: duplicate key hash")

// Repository defines the interface for API key storage
type Repository interface {
	Create(ctx context.Context, key *APIKey) error
	GetByID(ctx context.Context, id string) (*APIKey, error)
	GetByHash(ctx context.Context, hash string) (*APIKey, error)
	ListByClient(ctx context.Context, clientID string) ([]*APIKey, error)
	// HasUnexpired reports whether the client holds a key that has not
	// expired at now, revoked or not.
	HasUnexpired(ctx context.Context, clientID string, now time.Time) (bool, error)
	// ToggleRevoked flips the revoked flag and returns the updated key.
	ToggleRevoked(ctx context.Context, id string) (*APIKey, error)
	// Rotate stores a new secret and expiry and clears the revoked flag.
	Rotate(ctx context.Context, id, hash, prefix string, expiresAt time.Time) (*APIKey, error)
}

// InMemoryRepository keeps keys in a map. Used by tests and local runs
// without DATABASE_URL.
type InMemoryRepository struct {
	mu   sync.RWMutex
	keys map[string]*APIKey
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{keys: make(map[string]*APIKey)}
}

func (r *InMemoryRepository) Create(ctx context.Context, key *APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.keys {
		if existing.KeyHash == key.KeyHash {
			return ErrDuplicateHash
		}
	}
	now := time.Now().UTC()
	key.ID = uuid.New().String()
	key.CreatedAt = now
	key.UpdatedAt = now
	stored := *key
	r.keys[key.ID] = &stored
	return nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.keys[id]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := *key
	return &out, nil
}

func (r *InMemoryRepository) GetByHash(ctx context.Context, hash string) (*APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, key := range r.keys {
		if key.KeyHash == hash {
			out := *key
			return &out, nil
		}
	}
	return nil, ErrKeyNotFound
}

// ListByClient returns the client's keys, newest first.
func (r *InMemoryRepository) ListByClient(ctx context.Context, clientID string) ([]*APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*APIKey, 0)
	for _, key := range r.keys {
		if key.ClientID == clientID {
			k := *key
			out = append(out, &k)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) HasUnexpired(ctx context.Context, clientID string, now time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, key := range r.keys {
		if key.ClientID == clientID && !key.Expired(now) {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryRepository) ToggleRevoked(ctx context.Context, id string) (*APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[id]
	if !ok {
		return nil, ErrKeyNotFound
	}
	key.Revoked = !key.Revoked
	key.UpdatedAt = time.Now().UTC()
	out := *key
	return &out, nil
}

func (r *InMemoryRepository) Rotate(ctx context.Context, id, hash, prefix string, expiresAt time.Time) (*APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[id]
	if !ok {
		return nil, ErrKeyNotFound
	}
	for otherID, other := range r.keys {
		if otherID != id && other.KeyHash == hash {
			return nil, ErrDuplicateHash
		}
	}
	key.KeyHash = hash
	key.KeyPrefix = prefix
	key.ExpiresAt = expiresAt
	key.Revoked = false
	key.UpdatedAt = time.Now().UTC()
	out := *key
	return &out, nil
}

var _ Repository = (*InMemoryRepository)(nil)
