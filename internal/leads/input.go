package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wolfman30/leadbox/internal/validation"
)

const maxExtraValueLen = 500

var fixedFields = map[string]struct{}{
	"email":   {},
	"name":    {},
	"phone":   {},
	"source":  {},
	"status":  {},
	"message": {},
}

// IsFixedField reports whether key is one of the lead's own columns.
func IsFixedField(key string) bool {
	_, ok := fixedFields[key]
	return ok
}

// Fields holds the fixed lead fields present in a request body. A nil
// pointer means the field was absent or blank.
type Fields struct {
	Email   *string `json:"email" validate:"omitempty,email"`
	Name    *string `json:"name" validate:"omitempty,min=3,max=50,leadname"`
	Phone   *string `json:"phone" validate:"omitempty,phone"`
	Source  *string `json:"source" validate:"omitempty,min=2,max=50"`
	Message *string `json:"message" validate:"omitempty,max=1000"`
	Status  *Status `json:"status" validate:"omitempty,oneof=new contacted converted lost"`
}

func (f Fields) empty() bool {
	return f.Email == nil && f.Name == nil && f.Phone == nil &&
		f.Source == nil && f.Message == nil && f.Status == nil
}

var fieldMessages = validation.Messages{
	"email.email":   "Please provide a valid email",
	"name.min":      "Name must be between 3 and 50 characters",
	"name.max":      "Name must be between 3 and 50 characters",
	"name.leadname": "Name can only contain letters, numbers, spaces, and basic punctuation",
	"phone":         "Please provide a valid phone number",
	"source":        "Source must be between 2 and 50 characters",
	"message":       "Message cannot exceed 1000 characters",
	"status":        "Status must be one of: new, contacted, converted, lost",
}

// Input is a lead request: the fixed fields, the free-form extras and, for
// routes addressing one lead, the owned lead it resolved to.
type Input struct {
	Fields
	ExtraFields map[string]Scalar `json:"-"`

	raw     map[string]json.RawMessage
	ownerID string
	leadID  string
	current *Lead
}

// NewInput wraps a decoded JSON object for the check pipeline.
func NewInput(ownerID string, raw map[string]json.RawMessage) *Input {
	return &Input{raw: raw, ownerID: ownerID}
}

// Current is the lead resolved by the ownership check.
func (in *Input) Current() *Lead { return in.current }

// decodeBody splits the raw body into fixed fields and extra fields.
func decodeBody(_ context.Context, in *Input, errs *validation.Errors) error {
	keys := make([]string, 0, len(in.raw))
	for k := range in.raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	in.ExtraFields = make(map[string]Scalar)
	for _, key := range keys {
		raw := in.raw[key]
		if IsFixedField(key) {
			decodeFixed(in, key, raw, errs)
			continue
		}
		if v, ok := decodeExtra(key, raw, errs); ok {
			in.ExtraFields[key] = v
		}
	}
	return nil
}

func decodeFixed(in *Input, key string, raw json.RawMessage, errs *validation.Errors) {
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		errs.Add(key, fmt.Sprintf("%s must be a string", strings.ToUpper(key[:1])+key[1:]))
		return
	}
	if v == nil {
		return
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return
	}
	switch key {
	case "email":
		s = validation.NormalizeEmail(s)
		in.Email = &s
	case "name":
		in.Name = &s
	case "phone":
		in.Phone = &s
	case "source":
		in.Source = &s
	case "message":
		in.Message = &s
	case "status":
		st := Status(s)
		in.Status = &st
	}
}

func decodeExtra(key string, raw json.RawMessage, errs *validation.Errors) (Scalar, bool) {
	var v Scalar
	err := json.Unmarshal(raw, &v)
	switch {
	case errors.Is(err, errNullScalar):
		errs.Add(key, fmt.Sprintf("Extra field '%s' cannot be null or undefined", key))
		return v, false
	case errors.Is(err, errCompositeScalar):
		errs.Add(key, fmt.Sprintf("Extra field '%s' must be a simple value, not an object or array", key))
		return v, false
	case !validation.FieldName(key):
		errs.Add(key, fmt.Sprintf("Extra field name '%s' can only contain letters, numbers, and underscores", key))
		return v, false
	case err != nil:
		errs.Add(key, fmt.Sprintf("Extra field '%s' must be a string, number or boolean", key))
		return v, false
	}
	if s, ok := v.Str(); ok && utf8.RuneCountInString(s) > maxExtraValueLen {
		errs.Add(key, fmt.Sprintf("Extra field '%s' value cannot exceed %d characters", key, maxExtraValueLen))
		return v, false
	}
	return v, true
}

func requireEmail(_ context.Context, in *Input, errs *validation.Errors) error {
	if in.Email == nil && !errs.Has("email") {
		errs.Add("email", "Email is required")
	}
	return nil
}

// ownedLead resolves the {id} path parameter to a lead owned by the caller.
// A malformed id or a lead the caller does not own rejects the request.
func ownedLead(repo Repository, leadID string) validation.Check[Input] {
	return func(ctx context.Context, in *Input, _ *validation.Errors) error {
		if _, err := uuid.Parse(leadID); err != nil {
			return ErrInvalidLeadID
		}
		lead, err := repo.GetByID(ctx, in.ownerID, leadID)
		if err != nil {
			return err
		}
		in.leadID = leadID
		in.current = lead
		return nil
	}
}

// NewLead builds the lead to store from a validated create input.
func NewLead(ownerID string, in *Input) *Lead {
	lead := &Lead{
		OwnerID:     ownerID,
		Status:      StatusNew,
		ExtraFields: cloneExtras(in.ExtraFields),
	}
	lead.apply(Update{Fields: in.Fields})
	return lead
}

// Update is the set of changes to write to a stored lead. ExtraFields holds
// only the new or changed keys; stores merge them over what is stored at
// write time.
type Update struct {
	Fields      Fields
	ExtraFields map[string]Scalar
}

// IsZero reports whether the update changes nothing.
func (u Update) IsZero() bool {
	return u.Fields.empty() && u.ExtraFields == nil
}

// BuildUpdate diffs a validated input against the stored lead. Fixed fields
// equal to their stored value are dropped, and so are extra fields whose
// stored value is already the same.
func BuildUpdate(current *Lead, in *Input) (Update, error) {
	var u Update
	f := in.Fields
	if f.Email != nil && *f.Email != current.Email {
		u.Fields.Email = f.Email
	}
	if f.Name != nil && *f.Name != current.Name {
		u.Fields.Name = f.Name
	}
	if f.Phone != nil && *f.Phone != current.Phone {
		u.Fields.Phone = f.Phone
	}
	if f.Source != nil && *f.Source != current.Source {
		u.Fields.Source = f.Source
	}
	if f.Message != nil && *f.Message != current.Message {
		u.Fields.Message = f.Message
	}
	if f.Status != nil && *f.Status != current.Status {
		u.Fields.Status = f.Status
	}

	for k, v := range in.ExtraFields {
		if old, ok := current.ExtraFields[k]; ok && old.Equal(v) {
			continue
		}
		if u.ExtraFields == nil {
			u.ExtraFields = make(map[string]Scalar)
		}
		u.ExtraFields[k] = v
	}

	if u.IsZero() {
		return Update{}, ErrNoValidFields
	}
	return u, nil
}
