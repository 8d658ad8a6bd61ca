// Package token persists the bearer credential the remote API requires.
// The credential is opaque to the rest of the core: callers only consume
// the logged-in and expiring-soon predicates, never the token's structure.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotLoggedIn is returned when no credential is stored.
var ErrNotLoggedIn = errors.New("not logged in")

// credential is the on-disk record. The token is an identity-provider JWT;
// email and name are display metadata captured at sign-in.
type credential struct {
	Token string `json:"token"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// FileStore keeps the credential in a mode-0600 JSON file.
type FileStore struct {
	path string

	mu   sync.RWMutex
	cred *credential
}

// NewFileStore loads any existing credential from path. A missing file is
// not an error; the store starts logged out.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	var cred credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("parse credential file: %w", err)
	}
	if cred.Token != "" {
		s.cred = &cred
	}
	return s, nil
}

// Save stores a new credential and persists it.
func (s *FileStore) Save(token, email, name string) error {
	if token == "" {
		return errors.New("token is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cred := &credential{Token: token, Email: email, Name: name}
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create credential directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}

	s.cred = cred
	return nil
}

// current returns the held credential, re-reading the file when none is
// in memory. Logins performed by another process (the CLI while the
// daemon runs) become visible on the next call instead of after a
// restart.
func (s *FileStore) current() *credential {
	s.mu.RLock()
	cred := s.cred
	s.mu.RUnlock()
	if cred != nil {
		return cred
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred != nil {
		return s.cred
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var loaded credential
	if err := json.Unmarshal(data, &loaded); err != nil || loaded.Token == "" {
		return nil
	}
	s.cred = &loaded
	return s.cred
}

// Token returns the stored bearer token, or ErrNotLoggedIn.
func (s *FileStore) Token() (string, error) {
	cred := s.current()
	if cred == nil {
		return "", ErrNotLoggedIn
	}
	return cred.Token, nil
}

// Email returns the stored account email, if any.
func (s *FileStore) Email() string {
	cred := s.current()
	if cred == nil {
		return ""
	}
	return cred.Email
}

// IsLoggedIn reports whether a credential is stored.
func (s *FileStore) IsLoggedIn() bool {
	return s.current() != nil
}

// IsExpiringSoon reports whether the stored credential expires within the
// given window. Credentials without a parseable expiry count as expiring,
// so the session layer refreshes them rather than trusting them.
func (s *FileStore) IsExpiringSoon(within time.Duration) bool {
	cred := s.current()
	if cred == nil {
		return false
	}

	expiry, err := Expiry(cred.Token)
	if err != nil {
		return true
	}
	return time.Until(expiry) < within
}

// Invalidate discards the credential, in memory and on disk. Called when
// the server rejects the token; the next action triggers re-authentication.
func (s *FileStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	_ = os.Remove(s.path)
}

// Expiry extracts the exp claim from a JWT without verifying its
// signature. Verification is the server's job; the client only needs the
// expiry instant to schedule a refresh.
func Expiry(tokenString string) (time.Time, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("expiration claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, errors.New("token has no expiration claim")
	}
	return exp.Time, nil
}
