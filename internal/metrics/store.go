package metrics

import (
	"sync"
	"time"

	"watersafe/internal/model"
)

// Store keeps the latest task summary per water system.
type Store struct {
	mu        sync.RWMutex
	bySystem  map[string]model.TaskSummary
	updatedAt map[string]time.Time
	limit     int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 5000
	}
	return &Store{
		bySystem:  make(map[string]model.TaskSummary),
		updatedAt: make(map[string]time.Time),
		limit:     limit,
	}
}

func (s *Store) Update(summary model.TaskSummary) {
	if summary.PWSID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySystem[summary.PWSID] = summary
	s.updatedAt[summary.PWSID] = time.Now().UTC()
	if len(s.bySystem) > s.limit {
		s.evictOldest()
	}
}

func (s *Store) Get(pwsid string) (model.TaskSummary, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.bySystem[pwsid]
	if !ok {
		return model.TaskSummary{}, time.Time{}, false
	}
	return sum, s.updatedAt[pwsid], true
}

func (s *Store) GetAll() map[string]model.TaskSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.TaskSummary, len(s.bySystem))
	for id, sum := range s.bySystem {
		out[id] = sum
	}
	return out
}

func (s *Store) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, ts := range s.updatedAt {
		if oldestID == "" || ts.Before(oldest) {
			oldestID = id
			oldest = ts
		}
	}
	if oldestID != "" {
		delete(s.bySystem, oldestID)
		delete(s.updatedAt, oldestID)
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySystem = make(map[string]model.TaskSummary)
	s.updatedAt = make(map[string]time.Time)
}
