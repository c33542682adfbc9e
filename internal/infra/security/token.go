package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const defaultTokenBytes = 32

// RandomTokenGenerator issues opaque url-safe session tokens. Size is the
// number of random bytes before encoding; zero means the default.
type RandomTokenGenerator struct {
	Size int
}

func (g RandomTokenGenerator) NewToken() (string, error) {
	buf := make([]byte, g.bytes())
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: entropy read failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (g RandomTokenGenerator) bytes() int {
	if g.Size > 0 {
		return g.Size
	}
	return defaultTokenBytes
}
