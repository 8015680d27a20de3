package leads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage. Every lookup is scoped
// to the owning client.
type Repository interface {
	Create(ctx context.Context, lead *Lead) error
	GetByID(ctx context.Context, ownerID, id string) (*Lead, error)
	List(ctx context.Context, ownerID string, filter ListFilter) ([]*Lead, error)
	Update(ctx context.Context, ownerID, id string, upd Update) (*Lead, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// InMemoryRepository keeps leads in insertion order. Used by tests and local
// runs without DATABASE_URL.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
	order []string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// Create stores a copy of lead, assigning id and timestamps.
func (r *InMemoryRepository) Create(ctx context.Context, lead *Lead) error {
	now := time.Now().UTC()
	lead.ID = uuid.New().String()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.ExtraFields == nil {
		lead.ExtraFields = map[string]Scalar{}
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead.clone()
	r.order = append(r.order, lead.ID)
	r.mu.Unlock()
	return nil
}

// GetByID retrieves a lead owned by ownerID
func (r *InMemoryRepository) GetByID(ctx context.Context, ownerID, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok || lead.OwnerID != ownerID {
		return nil, ErrLeadNotFound
	}
	return lead.clone(), nil
}

// List returns the owner's leads, newest first.
func (r *InMemoryRepository) List(ctx context.Context, ownerID string, filter ListFilter) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit, offset := filter.bounds()
	out := make([]*Lead, 0)
	skipped := 0
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		lead := r.leads[r.order[i]]
		if lead.OwnerID != ownerID {
			continue
		}
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, lead.clone())
	}
	return out, nil
}

// Update applies upd to a lead owned by ownerID.
func (r *InMemoryRepository) Update(ctx context.Context, ownerID, id string, upd Update) (*Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok || lead.OwnerID != ownerID {
		return nil, ErrLeadNotFound
	}
	lead.apply(upd)
	lead.UpdatedAt = time.Now().UTC()
	return lead.clone(), nil
}

// Delete removes a lead owned by ownerID.
func (r *InMemoryRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok || lead.OwnerID != ownerID {
		return ErrLeadNotFound
	}
	delete(r.leads, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f ListFilter) bounds() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset = f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

var _ Repository = (*InMemoryRepository)(nil)
