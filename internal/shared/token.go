package shared

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TokenGenerator mints opaque credentials for the public offer surface.
type TokenGenerator interface {
	Token() (string, error)
}

type randomTokenGenerator struct{}

// NewTokenGenerator returns a generator producing 64 hex chars from 32
// crypto-random bytes.
func NewTokenGenerator() TokenGenerator { return randomTokenGenerator{} }

func (randomTokenGenerator) Token() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("shared: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// StaticTokenGenerator always returns the same token. Test helper.
type StaticTokenGenerator struct {
	Value string
}

func (g StaticTokenGenerator) Token() (string, error) { return g.Value, nil }
