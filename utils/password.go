package utils

import (
	"fmt"

	"github.com/sethvargo/go-password/password"
)

const (
	passwordLength = 16
	passwordDigits = 4
)

// GeneratePassword returns a random password without symbols so it can be
// embedded in connection strings unescaped.
func GeneratePassword() (string, error) {
	p, err := password.Generate(passwordLength, passwordDigits, 0, false, true)
	if err != nil {
		return "", fmt.Errorf("error generating password: %w", err)
	}
	return p, nil
}
