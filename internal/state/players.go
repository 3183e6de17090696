package state

import (
	"errors"
	"sync"
)

// ErrSessionExists is returned when a session with the same id, name, or
// token is already registered.
var ErrSessionExists = errors.New("state: session already registered")

// PlayerStore indexes live sessions by id, safe name, and token. The
// three indexes always point at the same set of players; insert and
// remove update all of them under one lock.
type PlayerStore struct {
	mu      sync.RWMutex
	byID    map[int32]*Player
	byName  map[string]*Player
	byToken map[string]*Player
}

// NewPlayerStore creates an empty store.
func NewPlayerStore() *PlayerStore {
	return &PlayerStore{
		byID:    make(map[int32]*Player),
		byName:  make(map[string]*Player),
		byToken: make(map[string]*Player),
	}
}

// Add registers a session in all three indexes atomically.
func (s *PlayerStore) Add(p *Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[p.ID]; ok {
		return ErrSessionExists
	}
	if _, ok := s.byName[p.SafeName]; ok {
		return ErrSessionExists
	}
	if _, ok := s.byToken[p.Token]; ok {
		return ErrSessionExists
	}
	s.byID[p.ID] = p
	s.byName[p.SafeName] = p
	s.byToken[p.Token] = p
	return nil
}

// Remove drops a session from all three indexes atomically. Returns
// false if the session was not registered.
func (s *PlayerStore) Remove(p *Player) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[p.ID]; !ok {
		return false
	}
	delete(s.byID, p.ID)
	delete(s.byName, p.SafeName)
	delete(s.byToken, p.Token)
	return true
}

// GetID looks a session up by user id.
func (s *PlayerStore) GetID(id int32) *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

// GetName looks a session up by name. The name is normalised before the
// lookup, so display names work too.
func (s *PlayerStore) GetName(name string) *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byName[MakeSafeName(name)]
}

// GetToken looks a session up by connection token.
func (s *PlayerStore) GetToken(token string) *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byToken[token]
}

// All returns a snapshot of every live session.
func (s *PlayerStore) All() []*Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Player, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	return out
}

// Len returns the number of live sessions.
func (s *PlayerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
