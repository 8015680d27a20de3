package leads

import (
	"time"
)

// Status is the pipeline stage of a lead.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusConverted, StatusLost:
		return true
	}
	return false
}

// Lead is a contact captured for a client, either from the dashboard or
// through an API key.
type Lead struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"ownerId"`
	Email       string            `json:"email"`
	Name        string            `json:"name,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Source      string            `json:"source,omitempty"`
	Message     string            `json:"message,omitempty"`
	Status      Status            `json:"status"`
	ExtraFields map[string]Scalar `json:"extraFields"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// ListFilter narrows and pages an owner's leads.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

func (l *Lead) clone() *Lead {
	out := *l
	out.ExtraFields = cloneExtras(l.ExtraFields)
	return &out
}

func (l *Lead) apply(u Update) {
	f := u.Fields
	if f.Email != nil {
		l.Email = *f.Email
	}
	if f.Name != nil {
		l.Name = *f.Name
	}
	if f.Phone != nil {
		l.Phone = *f.Phone
	}
	if f.Source != nil {
		l.Source = *f.Source
	}
	if f.Message != nil {
		l.Message = *f.Message
	}
	if f.Status != nil {
		l.Status = *f.Status
	}
	if len(u.ExtraFields) > 0 {
		merged := cloneExtras(l.ExtraFields)
		for k, v := range u.ExtraFields {
			merged[k] = v
		}
		l.ExtraFields = merged
	}
}

func cloneExtras(in map[string]Scalar) map[string]Scalar {
	out := make(map[string]Scalar, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
