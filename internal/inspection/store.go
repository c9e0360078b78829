package inspection

import (
	"sync"
	"time"
)

// Store keeps inspections in memory. The oldest entries are evicted once
// the store is full, and entries not refreshed within the ttl expire.
type Store struct {
	mu       sync.RWMutex
	order    []string
	items    map[string]*Inspection
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store. A zero capacity or ttl disables that limit.
func NewStore(capacity int, ttl time.Duration) *Store {
	return &Store{
		items:    make(map[string]*Inspection),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Put adds an inspection and returns the ids evicted to make room.
func (s *Store) Put(in *Inspection) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := s.expireLocked()

	if _, ok := s.items[in.ID]; !ok {
		s.order = append(s.order, in.ID)
	}
	s.items[in.ID] = in

	for s.capacity > 0 && len(s.order) > s.capacity {
		id := s.order[0]
		s.order = s.order[1:]
		delete(s.items, id)
		evicted = append(evicted, id)
	}
	return evicted
}

// Get returns the inspection with id if it has not expired.
func (s *Store) Get(id string) (*Inspection, bool) {
	s.mu.RLock()
	in, ok := s.items[id]
	s.mu.RUnlock()
	if !ok || s.expired(in) {
		return nil, false
	}
	return in, true
}

// Delete removes an inspection and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns live inspections, oldest first.
func (s *Store) List() []*Inspection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Inspection, 0, len(s.order))
	for _, id := range s.order {
		if in := s.items[id]; in != nil && !s.expired(in) {
			out = append(out, in)
		}
	}
	return out
}

// Len is the number of stored inspections, expired ones included until the
// next write.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Expire drops every expired inspection and returns their ids.
func (s *Store) Expire() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expireLocked()
}

func (s *Store) expireLocked() []string {
	if s.ttl <= 0 {
		return nil
	}
	var removed []string
	kept := s.order[:0]
	for _, id := range s.order {
		if s.expired(s.items[id]) {
			delete(s.items, id)
			removed = append(removed, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

func (s *Store) expired(in *Inspection) bool {
	if s.ttl <= 0 {
		return false
	}
	in.mu.RLock()
	last := in.updatedAt
	in.mu.RUnlock()
	return s.now().Sub(last) > s.ttl
}
