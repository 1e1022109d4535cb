package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory. Used in tests and with
// the "memory" store driver. Copies on read so callers cannot mutate
// stored state behind the lock.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) Create(ctx context.Context, owner, initialQuery string) (*Session, error) {
	sess := &Session{
		ID:           NewID(),
		Owner:        owner,
		Interactions: []Interaction{{Query: initialQuery, Response: ""}},
		LastUpdated:  time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return copySession(sess), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false, nil
	}
	return copySession(sess), true, nil
}

func (s *MemoryStore) AppendInteraction(ctx context.Context, id, query, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.Interactions = append(sess.Interactions, Interaction{Query: query, Response: response})
	sess.LastUpdated = time.Now().UTC()
	return nil
}

func (s *MemoryStore) SetInitialResponse(ctx context.Context, id, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if len(sess.Interactions) > 0 {
		sess.Interactions[0].Response = response
	}
	sess.LastUpdated = time.Now().UTC()
	return nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, owner string) ([]*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sessions []*Session
	for _, sess := range s.sessions {
		if sess.Owner == owner {
			sessions = append(sessions, copySession(sess))
		}
	}
	return sessions, nil
}

func (s *MemoryStore) MarkLocationExecuted(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.LocationQueryExecuted = true
	return nil
}

func (s *MemoryStore) SaveSummary(ctx context.Context, id string, summary Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.Summary = &summary
	return nil
}

func (s *MemoryStore) GetSummary(ctx context.Context, id string) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Summary == nil {
		return nil, nil
	}
	summary := *sess.Summary
	return &summary, nil
}

func (s *MemoryStore) Close() error { return nil }

func copySession(sess *Session) *Session {
	out := *sess
	out.Interactions = append([]Interaction(nil), sess.Interactions...)
	if sess.Summary != nil {
		summary := *sess.Summary
		out.Summary = &summary
	}
	return &out
}
