package api

import (
	"container/list"
	"sync"

	"github.com/google/uuid"

	"careermap/internal/engine"
)

type session struct {
	mu    sync.Mutex
	state *engine.SelectionState
}

// sessionStore keeps at most limit sessions, evicting the oldest first.
type sessionStore struct {
	mu    sync.Mutex
	limit int
	byID  map[string]*list.Element
	order *list.List // front is oldest
}

type sessionEntry struct {
	id   string
	sess *session
}

func newSessionStore(limit int) *sessionStore {
	if limit < 1 {
		limit = 1
	}
	return &sessionStore{
		limit: limit,
		byID:  make(map[string]*list.Element),
		order: list.New(),
	}
}

func (s *sessionStore) create(t *engine.Table) (id string, sess *session, evicted string) {
	sess = &session{state: engine.NewSelectionState(t)}
	id = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order.Len() >= s.limit {
		oldest := s.order.Front()
		evicted = oldest.Value.(*sessionEntry).id
		s.order.Remove(oldest)
		delete(s.byID, evicted)
	}
	s.byID[id] = s.order.PushBack(&sessionEntry{id: id, sess: sess})
	return id, sess, evicted
}

func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return el.Value.(*sessionEntry).sess, true
}

func (s *sessionStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.byID[id]
	if !ok {
		return false
	}
	s.order.Remove(el)
	delete(s.byID, id)
	return true
}

func (s *sessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}
