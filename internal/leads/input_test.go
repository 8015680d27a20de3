package leads

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/leadbox/internal/validation"
)

func runCreateChecks(t *testing.T, body string) (*Input, validation.Errors) {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	in := NewInput("owner", raw)
	errs, err := validation.Run(context.Background(), in,
		decodeBody,
		validation.StructCheck[Input](validation.New(), fieldMessages),
		requireEmail,
	)
	require.NoError(t, err)
	return in, errs
}

func messages(errs validation.Errors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Message)
	}
	return out
}

func TestCreateChecks_CapturesExtras(t *testing.T) {
	in, errs := runCreateChecks(t, `{"email":" A@B.com ","campaign":"fall24","score":7}`)
	require.Empty(t, errs)
	assert.Equal(t, "a@b.com", *in.Email)
	assert.Equal(t, map[string]Scalar{"campaign": String("fall24"), "score": Number(7)}, in.ExtraFields)

	lead := NewLead("owner", in)
	assert.Equal(t, StatusNew, lead.Status)
	assert.NotContains(t, lead.ExtraFields, "email")
}

func TestCreateChecks_ExtraFieldRules(t *testing.T) {
	long := strings.Repeat("x", 501)
	_, errs := runCreateChecks(t, `{
		"email":"a@b.com",
		"empty":null,
		"nested":{"a":1},
		"list":[1],
		"bad-name":"v",
		"long":"`+long+`"
	}`)
	msgs := messages(errs)
	assert.Contains(t, msgs, "Extra field 'empty' cannot be null or undefined")
	assert.Contains(t, msgs, "Extra field 'nested' must be a simple value, not an object or array")
	assert.Contains(t, msgs, "Extra field 'list' must be a simple value, not an object or array")
	assert.Contains(t, msgs, "Extra field name 'bad-name' can only contain letters, numbers, and underscores")
	assert.Contains(t, msgs, "Extra field 'long' value cannot exceed 500 characters")
	assert.Len(t, errs, 5)
}

func TestCreateChecks_FixedFieldRules(t *testing.T) {
	_, errs := runCreateChecks(t, `{
		"name":"Jo",
		"phone":"12",
		"source":"x",
		"message":"`+strings.Repeat("m", 1001)+`",
		"status":"archived"
	}`)
	msgs := messages(errs)
	assert.Contains(t, msgs, "Email is required")
	assert.Contains(t, msgs, "Name must be between 3 and 50 characters")
	assert.Contains(t, msgs, "Please provide a valid phone number")
	assert.Contains(t, msgs, "Source must be between 2 and 50 characters")
	assert.Contains(t, msgs, "Message cannot exceed 1000 characters")
	assert.Contains(t, msgs, "Status must be one of: new, contacted, converted, lost")
}

func TestCreateChecks_FixedFieldsMustBeStrings(t *testing.T) {
	_, errs := runCreateChecks(t, `{"email":"a@b.com","phone":5551234567}`)
	require.Len(t, errs, 1)
	assert.Equal(t, "phone", errs[0].Field)
	assert.Equal(t, "Phone must be a string", errs[0].Message)
}

func TestCreateChecks_AcceptsValidLead(t *testing.T) {
	in, errs := runCreateChecks(t, `{
		"email":"lead@example.com",
		"name":"Mary O'Neil",
		"phone":"(555) 123-4567",
		"source":"website",
		"message":"Call me",
		"status":"contacted"
	}`)
	require.Empty(t, errs, "%v", errs)
	lead := NewLead("owner", in)
	assert.Equal(t, StatusContacted, lead.Status)
	assert.Equal(t, "Mary O'Neil", lead.Name)
	assert.Empty(t, lead.ExtraFields)
}

func strPtr(s string) *string { return &s }

func TestBuildUpdate_MergesExtras(t *testing.T) {
	current := &Lead{
		Email:       "a@b.com",
		Status:      StatusNew,
		ExtraFields: map[string]Scalar{"campaign": String("fall24"), "score": Number(1)},
	}
	in := &Input{ExtraFields: map[string]Scalar{"score": Number(5), "region": String("west")}}

	upd, err := BuildUpdate(current, in)
	require.NoError(t, err)
	assert.Equal(t, map[string]Scalar{
		"score":  Number(5),
		"region": String("west"),
	}, upd.ExtraFields, "only new or changed extras are written")
	assert.Len(t, current.ExtraFields, 2, "current lead must not be mutated")

	current.apply(upd)
	assert.Equal(t, map[string]Scalar{
		"campaign": String("fall24"),
		"score":    Number(5),
		"region":   String("west"),
	}, current.ExtraFields)
}

func TestBuildUpdate_SkipsUnchangedExtras(t *testing.T) {
	current := &Lead{Email: "a@b.com", Status: StatusNew, ExtraFields: map[string]Scalar{"campaign": String("fall24")}}
	in := &Input{ExtraFields: map[string]Scalar{"campaign": String("fall24"), "vip": Bool(true)}}

	upd, err := BuildUpdate(current, in)
	require.NoError(t, err)
	assert.Equal(t, map[string]Scalar{"vip": Bool(true)}, upd.ExtraFields)
}

func TestInMemoryRepository_ConcurrentExtraUpdatesKeepBothKeys(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	lead := &Lead{OwnerID: "owner", Email: "a@b.com", Status: StatusNew, ExtraFields: map[string]Scalar{"campaign": String("fall24")}}
	require.NoError(t, repo.Create(ctx, lead))

	// Both updates are built from the same stale read.
	stale, err := repo.GetByID(ctx, "owner", lead.ID)
	require.NoError(t, err)
	first, err := BuildUpdate(stale, &Input{ExtraFields: map[string]Scalar{"region": String("west")}})
	require.NoError(t, err)
	second, err := BuildUpdate(stale, &Input{ExtraFields: map[string]Scalar{"score": Number(9)}})
	require.NoError(t, err)

	_, err = repo.Update(ctx, "owner", lead.ID, first)
	require.NoError(t, err)
	got, err := repo.Update(ctx, "owner", lead.ID, second)
	require.NoError(t, err)
	assert.Equal(t, map[string]Scalar{
		"campaign": String("fall24"),
		"region":   String("west"),
		"score":    Number(9),
	}, got.ExtraFields)
}

func TestBuildUpdate_DropsUnchangedFixedFields(t *testing.T) {
	current := &Lead{Email: "a@b.com", Name: "Ann Lee", Status: StatusNew}
	st := StatusContacted
	in := &Input{Fields: Fields{Email: strPtr("a@b.com"), Name: strPtr("Ann Lee"), Status: &st}}

	upd, err := BuildUpdate(current, in)
	require.NoError(t, err)
	assert.Nil(t, upd.Fields.Email)
	assert.Nil(t, upd.Fields.Name)
	require.NotNil(t, upd.Fields.Status)
	assert.Equal(t, StatusContacted, *upd.Fields.Status)
	assert.Nil(t, upd.ExtraFields)
}

func TestBuildUpdate_NoChanges(t *testing.T) {
	current := &Lead{Email: "a@b.com", Status: StatusNew, ExtraFields: map[string]Scalar{"campaign": String("fall24")}}

	_, err := BuildUpdate(current, &Input{Fields: Fields{Email: strPtr("a@b.com")}})
	assert.ErrorIs(t, err, ErrNoValidFields)

	_, err = BuildUpdate(current, &Input{ExtraFields: map[string]Scalar{"campaign": String("fall24")}})
	assert.ErrorIs(t, err, ErrNoValidFields)

	_, err = BuildUpdate(current, &Input{})
	assert.ErrorIs(t, err, ErrNoValidFields)
}
