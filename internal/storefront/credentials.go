package storefront

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Credentials is the single shared admin login.
type Credentials struct {
	username string
	hash     []byte
}

// NewCredentials accepts either a plaintext password, hashed here, or a
// ready bcrypt hash. The hash wins when both are given.
func NewCredentials(username, password, hash string) (*Credentials, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("admin password hash: %w", err)
		}
		return &Credentials{username: username, hash: []byte(hash)}, nil
	}

	if password == "" {
		return nil, errors.New("admin password is empty")
	}

	h, err := HashPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Credentials{username: username, hash: []byte(h)}, nil
}

func HashPassword(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}
	return string(h), nil
}

// Verify checks a login attempt. A blank username stands for the configured
// one so password-only login forms keep working.
func (c *Credentials) Verify(username, password string) bool {
	if username == "" {
		username = c.username
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(c.hash, []byte(password)) == nil
	return userOK && passOK
}
