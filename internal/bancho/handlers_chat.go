package bancho

import (
	"context"
	"strings"

	"github.com/lagoon-project/lagoon/internal/protocol"
	"github.com/lagoon-project/lagoon/internal/state"
)

func handleChangeAction(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	action, err := r.ReadUint8()
	if err != nil {
		return err
	}
	infoText, err := r.ReadString()
	if err != nil {
		return err
	}
	mapMD5, err := r.ReadString()
	if err != nil {
		return err
	}
	mods, err := r.ReadInt32()
	if err != nil {
		return err
	}
	mode, err := r.ReadUint8()
	if err != nil {
		return err
	}
	mapID, err := r.ReadInt32()
	if err != nil {
		return err
	}

	p.SetStatus(state.Status{
		Action:   action,
		InfoText: infoText,
		MapMD5:   mapMD5,
		Mods:     mods,
		Mode:     mode,
		MapID:    mapID,
	})

	if !p.Restricted() {
		b.World.BroadcastUnrestricted(p.StatsPacket())
	}
	return nil
}

func handleSendPublicMessage(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	msg, err := r.ReadMessage()
	if err != nil {
		return err
	}
	if p.Silenced() {
		return nil
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	c := b.World.Channels.GetByName(msg.Recipient)
	if c == nil || !c.HasMember(p.ID) {
		p.Enqueue(protocol.ChannelKick(msg.Recipient))
		return nil
	}

	c.Enqueue(protocol.SendMessage(protocol.Message{
		Sender:    p.DisplayName(),
		Text:      text,
		Recipient: c.Name,
		SenderID:  p.ID,
	}), p.ID)
	return nil
}

func handleSendPrivateMessage(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	msg, err := r.ReadMessage()
	if err != nil {
		return err
	}
	if p.Silenced() {
		return nil
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil
	}

	target := b.World.Players.GetName(msg.Recipient)
	if target == nil {
		p.Enqueue(protocol.Notification(msg.Recipient + " is currently offline."))
		return nil
	}
	if target.Silenced() {
		p.Enqueue(protocol.Notification(target.Name + " is silenced and cannot receive messages."))
		return nil
	}

	target.Enqueue(protocol.SendMessage(protocol.Message{
		Sender:    p.DisplayName(),
		Text:      text,
		Recipient: target.Name,
		SenderID:  p.ID,
	}))

	if away := target.AwayMessage(); away != "" {
		p.Enqueue(protocol.SendMessage(protocol.Message{
			Sender:    target.DisplayName(),
			Text:      away,
			Recipient: p.Name,
			SenderID:  target.ID,
		}))
	}
	return nil
}

func handleLogout(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	// The payload is an unused i32; a short payload is harmless here.
	r.Skip(4)
	b.LogoutPlayer(ctx, p, "logout")
	return nil
}

func handleRequestStatusUpdate(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	p.Enqueue(p.StatsPacket())
	return nil
}

func handlePing(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	// The poll keeps the session alive. Answer with a pong when nothing
	// else is queued so the response body is never empty.
	if p.QueueLen() == 0 {
		p.Enqueue(protocol.Pong())
	}
	return nil
}

func handleChannelJoin(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	name, err := r.ReadString()
	if err != nil {
		return err
	}
	c := b.World.Channels.GetByName(name)
	if c == nil {
		p.Enqueue(protocol.ChannelKick(name))
		return nil
	}
	if !b.World.JoinChannel(p, c) {
		p.Enqueue(protocol.ChannelKick(name))
	}
	return nil
}

func handleChannelPart(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	name, err := r.ReadString()
	if err != nil {
		return err
	}
	if c := b.World.Channels.GetByName(name); c != nil {
		b.World.LeaveChannel(p, c)
	}
	return nil
}

func handleFriendAdd(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	id, err := r.ReadInt32()
	if err != nil {
		return err
	}
	p.AddFriend(id)
	return b.Store.AddFriend(ctx, p.ID, id)
}

func handleFriendRemove(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	id, err := r.ReadInt32()
	if err != nil {
		return err
	}
	p.RemoveFriend(id)
	return b.Store.RemoveFriend(ctx, p.ID, id)
}

func handleReceiveUpdates(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	// Presence filter (0 none, 1 all, 2 friends). Read and accepted as-is;
	// broadcast filtering by friends list is handled client side.
	_, err := r.ReadInt32()
	return err
}

func handleSetAwayMessage(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	msg, err := r.ReadMessage()
	if err != nil {
		return err
	}
	p.SetAwayMessage(msg.Text)
	if msg.Text == "" {
		p.Enqueue(protocol.Notification("You are no longer marked as away."))
	} else {
		p.Enqueue(protocol.Notification("You are now marked as away: " + msg.Text))
	}
	return nil
}

func handleUserStatsRequest(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	ids, err := r.ReadInt32List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == p.ID {
			continue
		}
		if other := b.World.Players.GetID(id); other != nil && !other.Restricted() {
			p.Enqueue(other.StatsPacket())
		}
	}
	return nil
}

func handleUserPresenceRequest(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	ids, err := r.ReadInt32List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if other := b.World.Players.GetID(id); other != nil && !other.Restricted() {
			p.Enqueue(other.PresencePacket())
		}
	}
	return nil
}

func handleUserPresenceRequestAll(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error {
	// Payload is the client's in-game time, unused.
	r.Skip(4)
	for _, other := range b.World.Players.All() {
		if other.ID != p.ID && !other.Restricted() {
			p.Enqueue(other.PresencePacket())
		}
	}
	return nil
}
