package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetRoundTrip(t *testing.T) {
	s := NewResetSigner("reset-secret")
	token, err := s.Sign("user-42")
	require.NoError(t, err)

	userID, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestResetTokenOlderThanAnHourIsExpired(t *testing.T) {
	s := NewResetSigner("reset-secret")
	s.now = func() time.Time { return time.Now().Add(-61 * time.Minute) }
	token, err := s.Sign("user-42")
	require.NoError(t, err)

	_, err = NewResetSigner("reset-secret").Verify(token)
	assert.ErrorIs(t, err, ErrExpired)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestResetTokenJustUnderAnHourIsValid(t *testing.T) {
	s := NewResetSigner("reset-secret")
	s.now = func() time.Time { return time.Now().Add(-59 * time.Minute) }
	token, err := s.Sign("user-42")
	require.NoError(t, err)

	_, err = NewResetSigner("reset-secret").Verify(token)
	assert.NoError(t, err)
}

func TestVerificationLivesTwentyHours(t *testing.T) {
	s := NewVerificationSigner("verify-secret")
	assert.Equal(t, 20*time.Hour, s.TTL())

	s.now = func() time.Time { return time.Now().Add(-19 * time.Hour) }
	token, err := s.Sign("user-1")
	require.NoError(t, err)
	_, err = NewVerificationSigner("verify-secret").Verify(token)
	assert.NoError(t, err)
}

func TestPurposesDoNotCrossOver(t *testing.T) {
	// Same secret on purpose: only the purpose claim separates them.
	reset := NewResetSigner("shared")
	verify := NewVerificationSigner("shared")

	token, err := reset.Sign("user-1")
	require.NoError(t, err)
	_, err = verify.Verify(token)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestTamperedAndEmpty(t *testing.T) {
	s := NewResetSigner("reset-secret")
	token, err := s.Sign("user-1")
	require.NoError(t, err)

	_, err = NewResetSigner("other-secret").Verify(token)
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.Verify("")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = NewResetSigner("").Sign("user-1")
	assert.Error(t, err)
}
