package letters

import (
	"sync"
	"time"

	"watersafe/internal/model"
)

// Store is one session's ledger of generated letters. Entity keys are never
// evicted, so the at-most-once check holds even after the listing buffer
// has rolled over.
type Store struct {
	gen   sync.Mutex
	mu    sync.RWMutex
	buf   []model.Letter
	byKey map[string]model.Letter
	limit int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 1000
	}
	return &Store{limit: limit, byKey: make(map[string]model.Letter)}
}

// BeginGeneration holds the session's generation lock until the returned
// func is called. The duplicate check, the render and the Add for one
// entity must all happen under it.
func (s *Store) BeginGeneration() (release func()) {
	s.gen.Lock()
	return s.gen.Unlock
}

func (s *Store) Add(letter model.Letter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if letter.EntityKey != "" {
		s.byKey[letter.EntityKey] = letter
	}
	if len(s.buf) < s.limit {
		s.buf = append(s.buf, letter)
		return
	}
	copy(s.buf, s.buf[1:])
	s.buf[len(s.buf)-1] = letter
}

func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byKey[key]
	return ok
}

func (s *Store) Lookup(key string) (model.Letter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.byKey[key]
	return l, ok
}

func (s *Store) Get(id string) (model.Letter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.buf) - 1; i >= 0; i-- {
		if s.buf[i].ID == id {
			return s.buf[i], true
		}
	}
	for _, l := range s.byKey {
		if l.ID == id {
			return l, true
		}
	}
	return model.Letter{}, false
}

// Update replaces the stored copy of a letter with the same ID.
func (s *Store) Update(letter model.Letter) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for i := range s.buf {
		if s.buf[i].ID == letter.ID {
			s.buf[i] = letter
			found = true
		}
	}
	if letter.EntityKey != "" {
		if cur, ok := s.byKey[letter.EntityKey]; ok && cur.ID == letter.ID {
			s.byKey[letter.EntityKey] = letter
			found = true
		}
	}
	return found
}

func (s *Store) List(limit int) []model.Letter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.buf) {
		limit = len(s.buf)
	}
	out := make([]model.Letter, 0, limit)
	start := len(s.buf) - limit
	if start < 0 {
		start = 0
	}
	for i := start; i < len(s.buf); i++ {
		out = append(out, s.buf[i])
	}
	return out
}

func (s *Store) ForSystem(pwsid string) []model.Letter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Letter, 0)
	for _, l := range s.buf {
		if l.SystemID == pwsid {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) Since(ts time.Time) []model.Letter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Letter, 0)
	for _, l := range s.buf {
		if !l.GeneratedAt.Before(ts) {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buf)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
	s.byKey = make(map[string]model.Letter)
}
