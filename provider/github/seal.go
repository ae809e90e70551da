package github

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/box"
)

// Seal encrypts value for the holder of publicKey (base64, as returned by the
// GitHub API) with an anonymous sealed box and returns it base64 encoded.
func Seal(publicKey, value string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return "", fmt.Errorf("invalid public key: %w", err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("invalid public key length %d", len(raw))
	}

	var pk [32]byte
	copy(pk[:], raw)

	sealed, err := box.SealAnonymous(nil, []byte(value), &pk, rand.Reader)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}
