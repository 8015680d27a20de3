package apikeys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	secretBytes = 32
	prefixLen   = 8
)

// secret is a freshly generated key in plaintext along with what gets stored.
type secret struct {
	plain  string
	hash   string
	prefix string
}

func newSecret(r io.Reader) (secret, error) {
	buf := make([]byte, secretBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return secret{}, fmt.Errorf("apikeys: read random: %w", err)
	}
	plain := base64.RawURLEncoding.EncodeToString(buf)
	return secret{plain: plain, hash: HashKey(plain), prefix: plain[:prefixLen]}, nil
}

// HashKey returns the lookup hash stored for a plaintext key.
func HashKey(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

var randReader io.Reader = rand.Reader
