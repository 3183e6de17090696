package state

import (
	"errors"
	"sync"
)

// MaxMatches is the hard capacity of the match registry. Match ids are
// 1-based; index 0 of the backing array is never used.
const MaxMatches = 64

// ErrMatchesFull is returned when all 64 match ids are in use.
var ErrMatchesFull = errors.New("state: no free match slots")

// MatchStore is the fixed-size registry of live matches.
type MatchStore struct {
	mu    sync.RWMutex
	byID  [MaxMatches + 1]*Match
	count int
}

// NewMatchStore creates an empty registry.
func NewMatchStore() *MatchStore {
	return &MatchStore{}
}

// Create claims the first free id and constructs a match there. Fails
// with ErrMatchesFull when all 64 ids are taken; nothing is created in
// that case.
func (s *MatchStore) Create(name, password string, hostID int32) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := int32(1); id <= MaxMatches; id++ {
		if s.byID[id] == nil {
			m := newMatch(id, name, password, hostID)
			s.byID[id] = m
			s.count++
			return m, nil
		}
	}
	return nil, ErrMatchesFull
}

// Get returns the live match with the given id, nil if none.
func (s *MatchStore) Get(id int32) *Match {
	if id < 1 || id > MaxMatches {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

// Remove frees a match id. Returns false if the id was already empty.
func (s *MatchStore) Remove(id int32) bool {
	if id < 1 || id > MaxMatches {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byID[id] == nil {
		return false
	}
	s.byID[id] = nil
	s.count--
	return true
}

// All returns a snapshot of every live match in id order.
func (s *MatchStore) All() []*Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Match, 0, s.count)
	for id := int32(1); id <= MaxMatches; id++ {
		if s.byID[id] != nil {
			out = append(out, s.byID[id])
		}
	}
	return out
}

// Len returns the number of live matches.
func (s *MatchStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
