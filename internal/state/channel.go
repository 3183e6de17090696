package state

import (
	"sync"

	"github.com/lagoon-project/lagoon/internal/protocol"
)

// Channel is a chat room. Static channels are loaded at startup; instanced
// channels (group and match chats) live and die with their owner.
type Channel struct {
	Name      string
	Topic     string
	AutoJoin  bool
	Instanced bool

	mu      sync.RWMutex
	members map[int32]*Player
}

// NewChannel creates an empty channel.
func NewChannel(name, topic string, autoJoin, instanced bool) *Channel {
	return &Channel{
		Name:      name,
		Topic:     topic,
		AutoJoin:  autoJoin,
		Instanced: instanced,
		members:   make(map[int32]*Player),
	}
}

// AddMember seats a player in the channel. Returns false if already present.
func (c *Channel) AddMember(p *Player) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.members[p.ID]; ok {
		return false
	}
	c.members[p.ID] = p
	return true
}

// RemoveMember removes a player. Returns false if they were not a member.
func (c *Channel) RemoveMember(id int32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.members[id]; !ok {
		return false
	}
	delete(c.members, id)
	return true
}

// HasMember reports whether the player is in the channel.
func (c *Channel) HasMember(id int32) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.members[id]
	return ok
}

// Members returns a snapshot of the member list, safe to iterate while
// the channel is concurrently mutated.
func (c *Channel) Members() []*Player {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Player, 0, len(c.members))
	for _, p := range c.members {
		out = append(out, p)
	}
	return out
}

// NumMembers returns the current member count.
func (c *Channel) NumMembers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// Enqueue appends packet bytes to every member's mailbox except the
// listed ids.
func (c *Channel) Enqueue(b []byte, exclude ...int32) {
	for _, p := range c.Members() {
		skip := false
		for _, ex := range exclude {
			if p.ID == ex {
				skip = true
				break
			}
		}
		if !skip {
			p.Enqueue(b)
		}
	}
}

// SendBot delivers a server-bot message to every member.
func (c *Channel) SendBot(text string) {
	c.Enqueue(protocol.SendMessage(protocol.Message{
		Sender:    BotName,
		Text:      text,
		Recipient: c.Name,
		SenderID:  BotID,
	}))
}

// InfoPacket builds the channel-info packet for this channel.
func (c *Channel) InfoPacket() []byte {
	return protocol.ChannelInfo(c.Name, c.Topic, int16(c.NumMembers()))
}
