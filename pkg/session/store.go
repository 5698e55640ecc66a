package session

import (
	"container/list"
	"sync"
)

// Store is a bounded LRU map of live sessions keyed by thread id. When the
// capacity is exceeded the least recently used session is evicted; an
// evicted interview can be resumed from the archive but loses live state.
type Store struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type storeEntry struct {
	threadID string
	session  *Session
}

// NewStore creates a store holding at most capacity sessions (minimum 1).
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = 1
	}
	return &Store{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get returns the session for a thread and marks it most recently used.
func (s *Store) Get(threadID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	element, ok := s.entries[threadID]
	if !ok {
		return nil, false
	}
	s.order.MoveToFront(element)
	return element.Value.(*storeEntry).session, true
}

// Put stores a session, evicting the least recently used entry when full.
// It returns the evicted thread id, or "" when nothing was evicted.
func (s *Store) Put(threadID string, session *Session) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if element, ok := s.entries[threadID]; ok {
		element.Value.(*storeEntry).session = session
		s.order.MoveToFront(element)
		return ""
	}

	evicted := ""
	if s.order.Len() >= s.capacity {
		oldest := s.order.Back()
		if oldest != nil {
			entry := oldest.Value.(*storeEntry)
			delete(s.entries, entry.threadID)
			s.order.Remove(oldest)
			evicted = entry.threadID
		}
	}
	s.entries[threadID] = s.order.PushFront(&storeEntry{threadID: threadID, session: session})
	return evicted
}

// Remove drops a session, typically once it has completed.
func (s *Store) Remove(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if element, ok := s.entries[threadID]; ok {
		delete(s.entries, threadID)
		s.order.Remove(element)
	}
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}
