package session

import (
	"sync"

	"github.com/munidigital/document-assistant/internal/core/domain"
)

// Store is the in-memory session owner. Sessions are removed explicitly when a
// flow ends; there is no eviction. The greeted set outlives session removal so
// a returning user is not welcomed twice in one process lifetime.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	greeted  map[string]struct{}
	locks    map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*domain.Session),
		greeted:  make(map[string]struct{}),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Store) Get(identity string) (*domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[identity]
	return session, ok
}

func (s *Store) GetOrCreate(identity string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[identity]; ok {
		return session
	}
	_, greeted := s.greeted[identity]
	session := &domain.Session{
		Identity: identity,
		State:    domain.StateUngreeted,
		Greeted:  greeted,
	}
	s.sessions[identity] = session
	return session
}

func (s *Store) Delete(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[identity]; ok && session.Greeted {
		s.greeted[identity] = struct{}{}
	}
	delete(s.sessions, identity)
}

// Acquire serializes handle cycles for one identity. Distinct identities never
// contend with each other.
func (s *Store) Acquire(identity string) func() {
	s.mu.Lock()
	lock, ok := s.locks[identity]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[identity] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Len reports how many sessions are live, for the active-sessions gauge.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
