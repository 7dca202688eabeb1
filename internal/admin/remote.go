package admin

import (
	"context"
	"errors"
	"sync"
)

// ErrBadAdminKey reports that the backend rejected the key.
var ErrBadAdminKey = errors.New("admin key rejected by backend")

// Pinger verifies a pre-shared key against the sync backend.
type Pinger interface {
	PingAdmin(ctx context.Context, key string) error
}

// KeyStore caches the verified key so a restart keeps admin mode without
// re-entering it.
type KeyStore interface {
	LoadAdminKey() (key string, verified bool, err error)
	StoreAdminKey(key string, verified bool) error
	ClearAdminKey() error
}

// KeyAuthorizer implements admin mode for the sync variant: the key is
// validated once by the backend's ping endpoint and then attached to every
// mutating request.
type KeyAuthorizer struct {
	pinger Pinger
	store  KeyStore

	mu  sync.Mutex
	key string
	ok  bool
}

// NewKeyAuthorizer restores any previously verified key from the store.
func NewKeyAuthorizer(pinger Pinger, store KeyStore) (*KeyAuthorizer, error) {
	a := &KeyAuthorizer{pinger: pinger, store: store}
	if store != nil {
		key, verified, err := store.LoadAdminKey()
		if err != nil {
			return nil, err
		}
		a.key, a.ok = key, verified && key != ""
	}
	return a, nil
}

// Verify checks the key with the backend. On success it is cached; a failed
// attempt clears any cached admin state, so a typo also logs you out.
func (a *KeyAuthorizer) Verify(ctx context.Context, key string) error {
	if err := a.pinger.PingAdmin(ctx, key); err != nil {
		a.mu.Lock()
		a.key, a.ok = "", false
		a.mu.Unlock()
		if a.store != nil {
			if clearErr := a.store.ClearAdminKey(); clearErr != nil {
				return clearErr
			}
		}
		return err
	}

	a.mu.Lock()
	a.key, a.ok = key, true
	a.mu.Unlock()
	if a.store != nil {
		return a.store.StoreAdminKey(key, true)
	}
	return nil
}

// Logout drops the cached key.
func (a *KeyAuthorizer) Logout() error {
	a.mu.Lock()
	a.key, a.ok = "", false
	a.mu.Unlock()
	if a.store != nil {
		return a.store.ClearAdminKey()
	}
	return nil
}

func (a *KeyAuthorizer) IsAdmin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ok
}

// Key returns the verified key, or "" when not in admin mode. Transport
// clients call this per request so logout takes effect immediately.
func (a *KeyAuthorizer) Key() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.ok {
		return ""
	}
	return a.key
}
