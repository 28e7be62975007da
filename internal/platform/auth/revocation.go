package auth

import (
	"sync"
	"time"
)

// TokenRevocationStore tracks revoked token IDs (jti) until the tokens would
// have expired naturally. Cleanup is driven externally by the scheduler.
type TokenRevocationStore struct {
	mu       sync.RWMutex
	entries  map[string]revocationEntry // jti -> entry
	userJTIs map[string][]string        // username -> []jti
	now      func() time.Time
}

type revocationEntry struct {
	ExpiresAt time.Time
	Username  string
}

func NewTokenRevocationStore() *TokenRevocationStore {
	return &TokenRevocationStore{
		entries:  make(map[string]revocationEntry),
		userJTIs: make(map[string][]string),
		now:      time.Now,
	}
}

// Revoke marks jti as revoked until expiresAt.
func (s *TokenRevocationStore) Revoke(jti, username string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[jti]; !exists && username != "" {
		s.userJTIs[username] = append(s.userJTIs[username], jti)
	}
	s.entries[jti] = revocationEntry{ExpiresAt: expiresAt, Username: username}
}

func (s *TokenRevocationStore) IsRevoked(jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[jti]
	return ok
}

// RevokedForUser returns how many live revocations belong to username.
func (s *TokenRevocationStore) RevokedForUser(username string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.userJTIs[username])
}

func (s *TokenRevocationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Cleanup drops entries whose tokens have expired and returns how many were
// removed.
func (s *TokenRevocationStore) Cleanup() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for jti, entry := range s.entries {
		if !now.After(entry.ExpiresAt) {
			continue
		}
		delete(s.entries, jti)
		removed++

		if entry.Username == "" {
			continue
		}
		jtis := s.userJTIs[entry.Username]
		for i, id := range jtis {
			if id == jti {
				jtis = append(jtis[:i], jtis[i+1:]...)
				break
			}
		}
		if len(jtis) == 0 {
			delete(s.userJTIs, entry.Username)
		} else {
			s.userJTIs[entry.Username] = jtis
		}
	}
	return removed
}
