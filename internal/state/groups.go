package state

import "sync"

// GroupStore indexes live groups by token.
type GroupStore struct {
	mu      sync.RWMutex
	byToken map[string]*Group
}

// NewGroupStore creates an empty store.
func NewGroupStore() *GroupStore {
	return &GroupStore{byToken: make(map[string]*Group)}
}

// CheckToken reports whether a token is already in use. Token generation
// probes this before claiming a token.
func (s *GroupStore) CheckToken(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byToken[token]
	return ok
}

// Add registers a group. Returns false on token collision.
func (s *GroupStore) Add(g *Group) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byToken[g.Token]; ok {
		return false
	}
	s.byToken[g.Token] = g
	return true
}

// Remove drops a group by token.
func (s *GroupStore) Remove(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byToken[token]; !ok {
		return false
	}
	delete(s.byToken, token)
	return true
}

// GetByToken returns the group with the given token, nil if none.
func (s *GroupStore) GetByToken(token string) *Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byToken[token]
}

// All returns a snapshot of every live group.
func (s *GroupStore) All() []*Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Group, 0, len(s.byToken))
	for _, g := range s.byToken {
		out = append(out, g)
	}
	return out
}

// Len returns the number of live groups.
func (s *GroupStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byToken)
}
