package user

import (
	"context"
	"sync"
)

// MemoryStore implements Store in process memory. Used in tests and with
// the "memory" store driver.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]string // username -> password hash
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]string)}
}

func (s *MemoryStore) Create(ctx context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return ErrExists
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	s.users[username] = hash
	return nil
}

func (s *MemoryStore) Authenticate(ctx context.Context, username, password string) (bool, error) {
	s.mu.Lock()
	hash, ok := s.users[username]
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	return CheckPassword(hash, password), nil
}

func (s *MemoryStore) Close() error { return nil }
