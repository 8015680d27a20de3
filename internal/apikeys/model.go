package apikeys

import "time"

// APIKey is the stored record of a client's ingestion key. Only the hash of
// the secret is kept.
type APIKey struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"clientId"`
	KeyHash   string    `json:"-"`
	KeyPrefix string    `json:"keyPrefix"`
	Revoked   bool      `json:"revoked"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Expired reports whether the key is past its expiry at now.
func (k *APIKey) Expired(now time.Time) bool {
	return !k.ExpiresAt.After(now)
}

// Issued is returned by generate and regenerate, the only responses that
// carry the plaintext key.
type Issued struct {
	*APIKey
	Key string `json:"key"`
}
