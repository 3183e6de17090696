package protocol

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Writer builds packet payloads. Methods return the Writer so writes can
// be chained, mirroring the order fields appear on the wire.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Reset clears the writer for reuse.
func (w *Writer) Reset() {
	w.buf.Reset()
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Bytes returns the accumulated payload.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// WriteUint8 writes a single byte.
func (w *Writer) WriteUint8(v uint8) *Writer {
	w.buf.WriteByte(v)
	return w
}

// WriteBool writes a boolean as one byte.
func (w *Writer) WriteBool(v bool) *Writer {
	if v {
		return w.WriteUint8(1)
	}
	return w.WriteUint8(0)
}

// WriteUint16 writes a little-endian uint16.
func (w *Writer) WriteUint16(v uint16) *Writer {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
	return w
}

// WriteInt16 writes a little-endian int16.
func (w *Writer) WriteInt16(v int16) *Writer {
	return w.WriteUint16(uint16(v))
}

// WriteUint32 writes a little-endian uint32.
func (w *Writer) WriteUint32(v uint32) *Writer {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
	return w
}

// WriteInt32 writes a little-endian int32.
func (w *Writer) WriteInt32(v int32) *Writer {
	return w.WriteUint32(uint32(v))
}

// WriteInt64 writes a little-endian int64.
func (w *Writer) WriteInt64(v int64) *Writer {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf.Write(b[:])
	return w
}

// WriteFloat32 writes a little-endian IEEE 754 float32.
func (w *Writer) WriteFloat32(v float32) *Writer {
	return w.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 writes a little-endian IEEE 754 float64.
func (w *Writer) WriteFloat64(v float64) *Writer {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf.Write(b[:])
	return w
}

// WriteUleb128 writes an unsigned LEB128-encoded integer.
func (w *Writer) WriteUleb128(v uint64) *Writer {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.buf.WriteByte(b)
		if v == 0 {
			return w
		}
	}
}

// WriteString writes an osu string: 0x00 for the empty string, otherwise
// 0x0b, a ULEB128 length, and the UTF-8 bytes.
func (w *Writer) WriteString(s string) *Writer {
	if s == "" {
		return w.WriteUint8(0x00)
	}
	w.WriteUint8(0x0b)
	w.WriteUleb128(uint64(len(s)))
	w.buf.WriteString(s)
	return w
}

// WriteBytes writes raw bytes with no framing.
func (w *Writer) WriteBytes(b []byte) *Writer {
	w.buf.Write(b)
	return w
}

// WriteInt32List writes a u16 count followed by each int32.
func (w *Writer) WriteInt32List(vs []int32) *Writer {
	w.WriteUint16(uint16(len(vs)))
	for _, v := range vs {
		w.WriteInt32(v)
	}
	return w
}

// WriteMessage encodes a chat message.
func (w *Writer) WriteMessage(m Message) *Writer {
	return w.WriteString(m.Sender).
		WriteString(m.Text).
		WriteString(m.Recipient).
		WriteInt32(m.SenderID)
}

// WriteMatch encodes a match snapshot. When sendPassword is false a set
// password is encoded as present-but-empty, so clients can tell the match
// is locked without learning the password.
func (w *Writer) WriteMatch(m Match, sendPassword bool) *Writer {
	w.WriteInt16(m.ID)
	w.WriteBool(m.InProgress)
	w.WriteUint8(m.Powerplay)
	w.WriteInt32(m.Mods)
	w.WriteString(m.Name)

	if m.Password != "" && !sendPassword {
		w.WriteUint8(0x0b).WriteUint8(0x00)
	} else {
		w.WriteString(m.Password)
	}

	w.WriteString(m.MapName)
	w.WriteInt32(m.MapID)
	w.WriteString(m.MapMD5)

	for i := 0; i < MaxSlots; i++ {
		w.WriteUint8(uint8(m.Slots[i].Status))
	}
	for i := 0; i < MaxSlots; i++ {
		w.WriteUint8(uint8(m.Slots[i].Team))
	}
	for i := 0; i < MaxSlots; i++ {
		if m.Slots[i].Status&SlotHasPlayer != 0 {
			w.WriteInt32(m.Slots[i].PlayerID)
		}
	}

	w.WriteInt32(m.HostID)
	w.WriteUint8(m.Mode)
	w.WriteUint8(m.WinCondition)
	w.WriteUint8(m.TeamType)
	w.WriteBool(m.FreeMods)
	if m.FreeMods {
		for i := 0; i < MaxSlots; i++ {
			w.WriteInt32(m.Slots[i].Mods)
		}
	}
	w.WriteInt32(m.Seed)
	return w
}

// WriteScoreFrame encodes an in-game score frame.
func (w *Writer) WriteScoreFrame(f ScoreFrame) *Writer {
	w.WriteInt32(f.Time)
	w.WriteUint8(f.SlotID)
	w.WriteUint16(f.Count300)
	w.WriteUint16(f.Count100)
	w.WriteUint16(f.Count50)
	w.WriteUint16(f.CountGeki)
	w.WriteUint16(f.CountKatu)
	w.WriteUint16(f.CountMiss)
	w.WriteInt32(f.TotalScore)
	w.WriteUint16(f.MaxCombo)
	w.WriteUint16(f.CurrentCombo)
	w.WriteBool(f.Perfect)
	w.WriteUint8(f.CurrentHP)
	w.WriteUint8(f.TagByte)
	w.WriteBool(f.ScoreV2)
	if f.ScoreV2 {
		w.WriteFloat64(f.ComboPortion)
		w.WriteFloat64(f.BonusPortion)
	}
	return w
}

// Packet frames a finished payload with the 7-byte header for id.
func (w *Writer) Packet(id PacketID) []byte {
	payload := w.buf.Bytes()
	out := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint16(out[0:2], uint16(id))
	// out[2] is the reserved byte, always zero.
	binary.LittleEndian.PutUint32(out[3:7], uint32(len(payload)))
	copy(out[HeaderSize:], payload)
	return out
}

// packet builds a complete framed packet from a payload-writing function.
func packet(id PacketID, fill func(w *Writer)) []byte {
	w := NewWriter()
	if fill != nil {
		fill(w)
	}
	return w.Packet(id)
}

// ---- Server packet constructors ----

// Notification builds a toast notification shown by the client.
func Notification(msg string) []byte {
	return packet(ServerNotification, func(w *Writer) { w.WriteString(msg) })
}

// Restart tells the client to reconnect after the given delay.
func Restart(msUntilReconnect int32) []byte {
	return packet(ServerRestart, func(w *Writer) { w.WriteInt32(msUntilReconnect) })
}

// UserID reports the login result: a positive id on success, or a
// negative error code (-1 auth failed, -5 server error, ...).
func UserID(id int32) []byte {
	return packet(ServerUserID, func(w *Writer) { w.WriteInt32(id) })
}

// ProtoVersion reports the server's bancho protocol revision.
func ProtoVersion(v int32) []byte {
	return packet(ServerProtocolVersion, func(w *Writer) { w.WriteInt32(v) })
}

// BanchoPrivileges reports the client-side privilege bits.
func BanchoPrivileges(p int32) []byte {
	return packet(ServerPrivileges, func(w *Writer) { w.WriteInt32(p) })
}

// Pong answers a client ping.
func Pong() []byte {
	return packet(ServerPong, nil)
}

// Logout announces that a user left to everyone still online.
func Logout(userID int32) []byte {
	return packet(ServerUserLogout, func(w *Writer) {
		w.WriteInt32(userID)
		w.WriteUint8(0)
	})
}

// SendMessage delivers a chat message.
func SendMessage(m Message) []byte {
	return packet(ServerSendMessage, func(w *Writer) { w.WriteMessage(m) })
}

// ChannelInfo describes one joinable channel.
func ChannelInfo(name, topic string, players int16) []byte {
	return packet(ServerChannelInfo, func(w *Writer) {
		w.WriteString(name).WriteString(topic).WriteInt16(players)
	})
}

// ChannelInfoEnd marks the end of the channel listing during login.
func ChannelInfoEnd() []byte {
	return packet(ServerChannelInfoEnd, nil)
}

// ChannelJoinSuccess confirms a channel join.
func ChannelJoinSuccess(name string) []byte {
	return packet(ServerChannelJoinSuccess, func(w *Writer) { w.WriteString(name) })
}

// ChannelKick removes the client from a channel.
func ChannelKick(name string) []byte {
	return packet(ServerChannelKick, func(w *Writer) { w.WriteString(name) })
}

// ChannelAutoJoin advertises an auto-join channel.
func ChannelAutoJoin(name, topic string, players int16) []byte {
	return packet(ServerChannelAutoJoin, func(w *Writer) {
		w.WriteString(name).WriteString(topic).WriteInt16(players)
	})
}

// FriendsList sends the user's friend ids.
func FriendsList(ids []int32) []byte {
	return packet(ServerFriendsList, func(w *Writer) { w.WriteInt32List(ids) })
}

// SilenceEnd reports the remaining silence duration in seconds.
func SilenceEnd(delta int32) []byte {
	return packet(ServerSilenceEnd, func(w *Writer) { w.WriteInt32(delta) })
}

// AccountRestricted tells the client its account is restricted.
func AccountRestricted() []byte {
	return packet(ServerAccountRestricted, nil)
}

// WriteUserStats encodes a stats packet.
func WriteUserStats(s UserStats) []byte {
	return packet(ServerUserStats, func(w *Writer) {
		w.WriteInt32(s.UserID)
		w.WriteUint8(s.Action)
		w.WriteString(s.InfoText)
		w.WriteString(s.MapMD5)
		w.WriteInt32(s.Mods)
		w.WriteUint8(s.Mode)
		w.WriteInt32(s.MapID)
		w.WriteInt64(s.RankedScore)
		w.WriteFloat32(s.Accuracy)
		w.WriteInt32(s.Plays)
		w.WriteInt64(s.TotalScore)
		w.WriteInt32(s.GlobalRank)
		w.WriteInt16(s.PP)
	})
}

// WriteUserPresence encodes a presence packet.
func WriteUserPresence(p UserPresence) []byte {
	return packet(ServerUserPresence, func(w *Writer) {
		w.WriteInt32(p.UserID)
		w.WriteString(p.Name)
		w.WriteUint8(uint8(p.UTCOffset + 24))
		w.WriteUint8(p.CountryCode)
		w.WriteUint8(p.BanchoPrivs | p.Mode<<5)
		w.WriteFloat32(p.Longitude)
		w.WriteFloat32(p.Latitude)
		w.WriteInt32(p.GlobalRank)
	})
}

// UserPresenceBundle points the client at a batch of user ids.
func UserPresenceBundle(ids []int32) []byte {
	return packet(ServerUserPresenceBundle, func(w *Writer) { w.WriteInt32List(ids) })
}

// NewMatch announces a newly created match to the lobby.
func NewMatch(m Match) []byte {
	return packet(ServerNewMatch, func(w *Writer) { w.WriteMatch(m, false) })
}

// UpdateMatch broadcasts new match state. The password is only included
// when sendPassword is set (i.e. to players inside the match).
func UpdateMatch(m Match, sendPassword bool) []byte {
	return packet(ServerUpdateMatch, func(w *Writer) { w.WriteMatch(m, sendPassword) })
}

// DisposeMatch removes a match from the lobby listing.
func DisposeMatch(id int32) []byte {
	return packet(ServerDisposeMatch, func(w *Writer) { w.WriteInt32(id) })
}

// MatchJoinSuccess confirms a match join with the full match state.
func MatchJoinSuccess(m Match) []byte {
	return packet(ServerMatchJoinSuccess, func(w *Writer) { w.WriteMatch(m, true) })
}

// MatchJoinFail rejects a match join.
func MatchJoinFail() []byte {
	return packet(ServerMatchJoinFail, nil)
}

// MatchStart tells seated players the game is starting.
func MatchStart(m Match) []byte {
	return packet(ServerMatchStart, func(w *Writer) { w.WriteMatch(m, true) })
}

// MatchScoreUpdate relays one player's score frame to the others.
func MatchScoreUpdate(f ScoreFrame) []byte {
	return packet(ServerMatchScoreUpdate, func(w *Writer) { w.WriteScoreFrame(f) })
}

// MatchTransferHost tells the client it is now host.
func MatchTransferHost() []byte {
	return packet(ServerMatchTransferHost, nil)
}

// MatchAllPlayersLoaded signals every playing slot finished loading.
func MatchAllPlayersLoaded() []byte {
	return packet(ServerMatchAllPlayersLoaded, nil)
}

// MatchPlayerFailed reports that the given slot failed the map.
func MatchPlayerFailed(slotID int32) []byte {
	return packet(ServerMatchPlayerFailed, func(w *Writer) { w.WriteInt32(slotID) })
}

// MatchComplete signals the end of the game.
func MatchComplete() []byte {
	return packet(ServerMatchComplete, nil)
}

// MatchSkip tells playing clients to skip the map intro.
func MatchSkip() []byte {
	return packet(ServerMatchSkip, nil)
}

// MatchPlayerSkipped reports that one slot requested a skip.
func MatchPlayerSkipped(slotID int32) []byte {
	return packet(ServerMatchPlayerSkipped, func(w *Writer) { w.WriteInt32(slotID) })
}

// MatchAbort aborts an in-progress game.
func MatchAbort() []byte {
	return packet(ServerMatchAbort, nil)
}

// MatchChangePassword pushes the new password to seated players.
func MatchChangePassword(password string) []byte {
	return packet(ServerMatchChangePassword, func(w *Writer) { w.WriteString(password) })
}

// MatchInvite carries a match invite as an in-client chat message.
func MatchInvite(m Message) []byte {
	return packet(ServerMatchInvite, func(w *Writer) { w.WriteMessage(m) })
}

// Identify answers the client capability handshake with the server's
// feature bits.
func Identify(features int32) []byte {
	return packet(ServerIdentify, func(w *Writer) { w.WriteInt32(features) })
}

// GroupJoin tells a capable client it entered a group.
func GroupJoin() []byte {
	return packet(ServerGroupJoin, nil)
}

// GroupLeave tells a capable client it left its group.
func GroupLeave() []byte {
	return packet(ServerGroupLeave, nil)
}

// GroupUsers sends the roster of the client's group: the lead id followed
// by every member id.
func GroupUsers(leadID int32, memberIDs []int32) []byte {
	return packet(ServerGroupUsers, func(w *Writer) {
		w.WriteInt32(leadID)
		w.WriteInt32List(memberIDs)
	})
}

// GroupInvite notifies a capable client of a pending group invite.
func GroupInvite(leadID int32, leadName string) []byte {
	return packet(ServerGroupInvite, func(w *Writer) {
		w.WriteInt32(leadID)
		w.WriteString(leadName)
	})
}
