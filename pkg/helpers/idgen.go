package helpers

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const shareTokenAlphabet = "0123456789abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

// NewShareToken returns a URL-safe public token for share links.
func NewShareToken() (string, error) {
	id, err := gonanoid.Generate(shareTokenAlphabet, 12)
	if err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return id, nil
}

// NewToken returns a 32 character random token for one-off links such as email confirmation.
func NewToken() (string, error) {
	id, err := gonanoid.New(32)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return id, nil
}
