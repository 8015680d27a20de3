package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/leadbox/internal/auth"
)

// Repository defines the interface for account storage
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByRole(ctx context.Context, role auth.Role) ([]*User, error)
	MarkEmailVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// InMemoryRepository keeps accounts in a map. Used by tests and local runs
// without DATABASE_URL.
type InMemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{users: make(map[string]*User)}
}

// Create stores a copy of user, assigning id and timestamps.
func (r *InMemoryRepository) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return ErrEmailTaken
		}
	}
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.users[user.ID] = &stored
	return nil
}

// GetByID retrieves an account by id
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *user
	return &out, nil
}

// GetByEmail retrieves an account by normalized email
func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, ErrUserNotFound
}

// ListByRole returns accounts with role, newest first.
func (r *InMemoryRepository) ListByRole(ctx context.Context, role auth.Role) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*User, 0)
	for _, user := range r.users {
		if user.Role == role {
			u := *user
			out = append(out, &u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MarkEmailVerified flips the verification flag.
func (r *InMemoryRepository) MarkEmailVerified(ctx context.Context, id string) error {
	return r.update(id, func(u *User) { u.IsEmailVerified = true })
}

// UpdatePassword replaces the stored hash.
func (r *InMemoryRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.update(id, func(u *User) { u.PasswordHash = passwordHash })
}

func (r *InMemoryRepository) update(id string, fn func(*User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	fn(user)
	user.UpdatedAt = time.Now().UTC()
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
