package state

import "sync"

// Clan is a persistent player association, loaded from the repository at
// startup. Only the fields the packet layer needs are kept in memory.
type Clan struct {
	ID      int32
	Name    string
	Tag     string
	OwnerID int32
}

// ClanStore indexes clans by id and tag.
type ClanStore struct {
	mu    sync.RWMutex
	byID  map[int32]*Clan
	byTag map[string]*Clan
}

// NewClanStore creates an empty store.
func NewClanStore() *ClanStore {
	return &ClanStore{
		byID:  make(map[int32]*Clan),
		byTag: make(map[string]*Clan),
	}
}

// Add registers a clan in both indexes.
func (s *ClanStore) Add(c *Clan) {
	s.mu.Lock()
	s.byID[c.ID] = c
	s.byTag[c.Tag] = c
	s.mu.Unlock()
}

// GetID returns the clan with the given id, nil if none.
func (s *ClanStore) GetID(id int32) *Clan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

// GetTag returns the clan with the given tag, nil if none.
func (s *ClanStore) GetTag(tag string) *Clan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byTag[tag]
}

// Len returns the number of loaded clans.
func (s *ClanStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Mappool is a named tournament map pool, loaded at startup for lookup
// by tournament tooling.
type Mappool struct {
	ID        int32
	Name      string
	CreatedBy int32
}

// PoolStore indexes mappools by id and name.
type PoolStore struct {
	mu     sync.RWMutex
	byID   map[int32]*Mappool
	byName map[string]*Mappool
}

// NewPoolStore creates an empty store.
func NewPoolStore() *PoolStore {
	return &PoolStore{
		byID:   make(map[int32]*Mappool),
		byName: make(map[string]*Mappool),
	}
}

// Add registers a mappool in both indexes.
func (s *PoolStore) Add(p *Mappool) {
	s.mu.Lock()
	s.byID[p.ID] = p
	s.byName[p.Name] = p
	s.mu.Unlock()
}

// GetID returns the pool with the given id, nil if none.
func (s *PoolStore) GetID(id int32) *Mappool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

// GetName returns the pool with the given name, nil if none.
func (s *PoolStore) GetName(name string) *Mappool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byName[name]
}

// All returns a snapshot of every pool.
func (s *PoolStore) All() []*Mappool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Mappool, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	return out
}
