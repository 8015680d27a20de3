// Package tokens issues the short-lived single-purpose links sent by email:
// password reset and email verification.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose separates token families so one can never stand in for another.
type Purpose string

const (
	PurposeReset        Purpose = "password_reset"
	PurposeVerification Purpose = "email_verification"
)

const (
	ResetTTL        = time.Hour
	VerificationTTL = 20 * time.Hour
)

var (
	// ErrExpired lets callers offer a resend instead of a generic failure.
	ErrExpired = errors.New("tokens: expired")
	ErrInvalid = errors.New("tokens: invalid")
)

type claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Signer issues and checks tokens of a single purpose.
type Signer struct {
	purpose Purpose
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewSigner builds a signer for purpose with its own secret.
func NewSigner(purpose Purpose, secret string, ttl time.Duration) *Signer {
	return &Signer{purpose: purpose, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewResetSigner returns the one-hour password reset signer.
func NewResetSigner(secret string) *Signer {
	return NewSigner(PurposeReset, secret, ResetTTL)
}

// NewVerificationSigner returns the twenty-hour email verification signer.
func NewVerificationSigner(secret string) *Signer {
	return NewSigner(PurposeVerification, secret, VerificationTTL)
}

// Sign embeds userID in a new token.
func (s *Signer) Sign(userID string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("tokens: %s secret not configured", s.purpose)
	}
	now := s.now()
	c := claims{
		Purpose: s.purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("tokens: sign %s: %w", s.purpose, err)
	}
	return signed, nil
}

// Verify returns the embedded user id, ErrExpired or ErrInvalid.
func (s *Signer) Verify(token string) (string, error) {
	if len(s.secret) == 0 || token == "" {
		return "", ErrInvalid
	}
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && c.Purpose == s.purpose {
			return "", ErrExpired
		}
		return "", ErrInvalid
	}
	if !parsed.Valid || c.Purpose != s.purpose || c.Subject == "" {
		return "", ErrInvalid
	}
	return c.Subject, nil
}

// TTL is how long issued tokens stay valid.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}
