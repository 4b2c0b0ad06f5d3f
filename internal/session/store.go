package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"notify/internal/catalog"
)

// Session pairs a coordinator with the lock that serializes its mutations.
type Session struct {
	ID string

	mu       sync.Mutex
	coord    *Coordinator
	lastSeen time.Time
}

// Do runs fn with exclusive access to the session's coordinator.
func (s *Session) Do(fn func(*Coordinator)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.coord)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Store keeps all live sessions in memory. Nothing is persisted; a restart
// starts every browser over with the default state.
type Store struct {
	cat          *catalog.Catalog
	headerOffset int
	now          func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store whose sessions filter cat.
func NewStore(cat *catalog.Catalog, headerOffset int) *Store {
	return &Store{
		cat:          cat,
		headerOffset: headerOffset,
		now:          time.Now,
		sessions:     make(map[string]*Session),
	}
}

// Create starts a new session with a random id.
func (st *Store) Create() *Session {
	s := &Session{
		ID:       uuid.NewString(),
		coord:    NewCoordinator(st.cat, st.headerOffset),
		lastSeen: st.now(),
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns the session for id and marks it as used.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch(st.now())
	return s, true
}

// Touch marks s as used. Long-lived connections call it per message. A
// session the sweeper already dropped is registered again, so a reload with
// the same cookie still finds it.
func (st *Store) Touch(s *Session) {
	s.touch(st.now())

	st.mu.RLock()
	_, ok := st.sessions[s.ID]
	st.mu.RUnlock()
	if ok {
		return
	}

	st.mu.Lock()
	if _, ok := st.sessions[s.ID]; !ok {
		st.sessions[s.ID] = s
	}
	st.mu.Unlock()
}

// GetOrCreate returns the session for id, or a new one when id is unknown
// or expired. created reports which.
func (st *Store) GetOrCreate(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s, false
		}
	}
	return st.Create(), true
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep drops sessions idle for longer than ttl and returns how many were
// removed.
func (st *Store) Sweep(ttl time.Duration) int {
	cutoff := st.now().Add(-ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}
