package auth

import "sync"

// RevocationStore tracks the jti values of revoked tokens. The in-memory
// implementation below suits a single process; multi-instance deployments
// should back this interface with a shared fast key-value store.
type RevocationStore interface {
	// Revoke marks jti as revoked. Idempotent.
	Revoke(jti string)

	// IsRevoked reports whether jti has been revoked.
	IsRevoked(jti string) bool
}

// MemoryRevocationStore is a mutex-guarded in-process revocation set. Entries
// are never pruned; revoked jtis simply outlive their tokens' expiry.
type MemoryRevocationStore struct {
	mu   sync.RWMutex
	jtis map[string]struct{}
}

func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{jtis: make(map[string]struct{})}
}

func (s *MemoryRevocationStore) Revoke(jti string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jtis[jti] = struct{}{}
}

func (s *MemoryRevocationStore) IsRevoked(jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.jtis[jti]
	return ok
}
