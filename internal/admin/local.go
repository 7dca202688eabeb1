// Package admin decides whether the current session holds admin privileges.
// The two variants authenticate differently: the local variant against a
// stored password hash, the sync variant against a pre-shared key verified by
// the backend.
package admin

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"
	"unicode"
)

// SessionMaxAge bounds an admin session. The password hash persists, but the
// session flag lives only in process memory and expires, so every new run
// requires logging in again.
const SessionMaxAge = 12 * time.Hour

var (
	ErrPasswordRequired = errors.New("password is required")
	ErrWeakPassword     = errors.New("password needs at least 8 characters including a letter and a digit")
	ErrWrongPassword    = errors.New("wrong password")
)

// CredentialStore persists the admin password hash.
type CredentialStore interface {
	LoadAdminHash() (hash string, ok bool, err error)
	StoreAdminHash(hash string) error
}

// LocalAuthorizer implements password-hash admin sessions for the local
// variant. The first password ever entered becomes the admin password.
type LocalAuthorizer struct {
	creds CredentialStore
	now   func() time.Time

	mu        sync.Mutex
	admin     bool
	sessionAt time.Time
}

func NewLocalAuthorizer(creds CredentialStore) *LocalAuthorizer {
	return &LocalAuthorizer{creds: creds, now: time.Now}
}

// SetClock replaces the time source for session-expiry tests.
func (a *LocalAuthorizer) SetClock(now func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.now = now
}

// Login verifies the password, or sets it if none was ever stored. firstTime
// reports that this call established the password.
func (a *LocalAuthorizer) Login(password string) (firstTime bool, err error) {
	if password == "" {
		return false, ErrPasswordRequired
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	stored, ok, err := a.creds.LoadAdminHash()
	if err != nil {
		return false, err
	}

	if !ok {
		if !strongEnough(password) {
			return false, ErrWeakPassword
		}
		if err := a.creds.StoreAdminHash(hashPassword(password)); err != nil {
			return false, err
		}
		a.admin = true
		a.sessionAt = a.now()
		return true, nil
	}

	if hashPassword(password) != stored {
		return false, ErrWrongPassword
	}
	a.admin = true
	a.sessionAt = a.now()
	return false, nil
}

func (a *LocalAuthorizer) Logout() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.admin = false
}

func (a *LocalAuthorizer) IsAdmin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.admin {
		return false
	}
	if a.now().Sub(a.sessionAt) > SessionMaxAge {
		a.admin = false
		return false
	}
	return true
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func strongEnough(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit := false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
