package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded map of sessions. Nothing survives a restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(capacity int, ttl time.Duration) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Touch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreate(id)
	sess.LastAccess = s.now()
	return nil
}

// SweepExpired removes every session idle for longer than the TTL.
func (s *MemoryStore) SweepExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastAccess) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Append(ctx context.Context, id string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreate(id)
	sess.History = append(sess.History, turn)
	if over := len(sess.History) - s.capacity; over > 0 {
		sess.History = append([]Turn(nil), sess.History[over:]...)
	}
	sess.LastAccess = s.now()
	return nil
}

func (s *MemoryStore) History(ctx context.Context, id string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return append([]Turn(nil), sess.History...), nil
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// caller holds s.mu
func (s *MemoryStore) getOrCreate(id string) *Session {
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{ID: id, LastAccess: s.now()}
		s.sessions[id] = sess
	}
	return sess
}
