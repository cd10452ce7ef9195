package client

import "sync"

// TokenStore holds the session token a Client presents on requests.
// Implementations must be safe for concurrent use.
type TokenStore interface {
	Token() string
	SetToken(string)
	Clear()
}

// MemoryStore is an in-process TokenStore.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore returns a MemoryStore primed with an optional token.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryStore) SetToken(t string) {
	s.mu.Lock()
	s.token = t
	s.mu.Unlock()
}

func (s *MemoryStore) Clear() {
	s.SetToken("")
}
