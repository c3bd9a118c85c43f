package storage

import (
	"context"
	"sync"

	"github.com/alejandrodnm/tradequest/internal/domain"
)

// MemoryStorage is an in-memory implementation of ports.Storage, used for
// dry runs and tests. Nothing survives the process.
type MemoryStorage struct {
	mu       sync.RWMutex
	profile  domain.Profile
	sessions []storedSession // orden de guardado
}

type storedSession struct {
	result domain.SessionResult
	trades []domain.CompletedTrade
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{profile: domain.NewProfile()}
}

// Load returns a copy of the stored profile.
func (s *MemoryStorage) Load(_ context.Context) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ProfileUpdate{}.Apply(s.profile), nil
}

// Save merges a partial update into the stored profile.
func (s *MemoryStorage) Save(_ context.Context, u domain.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = u.Apply(s.profile)
	return nil
}

// SaveSession stores a copy of the result and its trades. Saving the same
// session ID again replaces it.
func (s *MemoryStorage) SaveSession(_ context.Context, r domain.SessionResult, trades []domain.CompletedTrade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := storedSession{result: r, trades: append([]domain.CompletedTrade(nil), trades...)}
	for i := range s.sessions {
		if s.sessions[i].result.SessionID == r.SessionID {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			break
		}
	}
	s.sessions = append(s.sessions, entry)
	return nil
}

// RecentSessions returns up to limit results, most recent first.
func (s *MemoryStorage) RecentSessions(_ context.Context, limit int) ([]domain.SessionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.SessionResult
	for i := len(s.sessions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.sessions[i].result)
	}
	return out, nil
}

// SessionTrades returns a copy of the trades stored for sessionID.
func (s *MemoryStorage) SessionTrades(_ context.Context, sessionID string) ([]domain.CompletedTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.sessions {
		if e.result.SessionID == sessionID {
			return append([]domain.CompletedTrade(nil), e.trades...), nil
		}
	}
	return nil, nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error { return nil }
