// Package identity produces the stable per-install client identifier used for
// ownership checks. The id is advisory only: it is a self-generated string
// with no cryptographic binding, and anyone who wipes the data directory gets
// a fresh one. It must never be treated as a security boundary.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const clientIDFile = "client_id"

// Provider hands out the client id, generating and persisting one on first
// use. Safe for concurrent use.
type Provider struct {
	dir string

	mu     sync.Mutex
	cached string
}

func NewProvider(dataDir string) *Provider {
	return &Provider{dir: dataDir}
}

// ClientID returns the persisted id, creating it on first call. Later calls,
// including from later processes, return the same value.
func (p *Provider) ClientID() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" {
		return p.cached, nil
	}

	path := filepath.Join(p.dir, clientIDFile)
	if data, err := os.ReadFile(path); err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			p.cached = id
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to persist client id: %w", err)
	}
	p.cached = id
	return id, nil
}

// DefaultDataDir returns ~/.relgraph.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".relgraph"), nil
}
