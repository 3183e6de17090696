package state

import "sync"

// ChannelStore indexes chat channels by name.
type ChannelStore struct {
	mu     sync.RWMutex
	byName map[string]*Channel
}

// NewChannelStore creates an empty store.
func NewChannelStore() *ChannelStore {
	return &ChannelStore{byName: make(map[string]*Channel)}
}

// Add registers a channel. Returns false if the name is taken.
func (s *ChannelStore) Add(c *Channel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[c.Name]; ok {
		return false
	}
	s.byName[c.Name] = c
	return true
}

// Remove drops a channel by name.
func (s *ChannelStore) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[name]; !ok {
		return false
	}
	delete(s.byName, name)
	return true
}

// GetByName returns the channel with the given name, nil if none.
func (s *ChannelStore) GetByName(name string) *Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byName[name]
}

// All returns a snapshot of every channel.
func (s *ChannelStore) All() []*Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Channel, 0, len(s.byName))
	for _, c := range s.byName {
		out = append(out, c)
	}
	return out
}
