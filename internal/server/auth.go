package server

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// placeholderHash is compared against when the username does not match, so
// unknown users cost the same bcrypt work as known ones.
var placeholderHash, _ = bcrypt.GenerateFromPassword([]byte("assetdesk-placeholder"), bcrypt.MinCost)

// Authenticator checks credentials against the configured account.
type Authenticator struct {
	username string
	hash     []byte
}

// NewAuthenticator validates the account's hash. An empty account yields an
// authenticator that rejects every login.
func NewAuthenticator(account Account) (*Authenticator, error) {
	if account.Username == "" {
		return &Authenticator{}, nil
	}
	hash := []byte(account.PasswordHash)
	if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("account %q: password_hash is not a bcrypt hash: %w", account.Username, err)
	}
	return &Authenticator{username: account.Username, hash: hash}, nil
}

// Configured reports whether any login can succeed.
func (a *Authenticator) Configured() bool {
	return a.username != ""
}

// Check reports whether username and password match the account.
func (a *Authenticator) Check(username, password string) bool {
	if !a.Configured() {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1

	hash := a.hash
	if !userOK {
		hash = placeholderHash
	}
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	return userOK && err == nil
}

// HashPassword returns the bcrypt hash to put in the config file.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
