package tokenstore

import (
	"context"
	"sync"

	"github.com/s0up4200/osuapi/auth"
)

// MemoryStore keeps the credential in memory only.
type MemoryStore struct {
	mu   sync.RWMutex
	cred *auth.Credential
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (*auth.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return nil, nil
	}
	return clone(*s.cred), nil
}

func (s *MemoryStore) Save(_ context.Context, cred auth.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = clone(cred)
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func clone(cred auth.Credential) *auth.Credential {
	c := cred
	c.Scopes = append([]auth.Scope(nil), cred.Scopes...)
	return &c
}
