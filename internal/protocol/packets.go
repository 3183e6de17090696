// Package protocol implements the bancho binary wire format: the packet
// header, primitive and composite encoders/decoders, and the constructors
// for every server-to-client packet. All numeric fields are little-endian;
// strings use a presence byte (0x0b) followed by a ULEB128 length.
package protocol

// PacketID identifies a bancho packet type on the wire.
type PacketID uint16

// Client-to-server packet ids.
const (
	ClientChangeAction           PacketID = 0
	ClientSendPublicMessage      PacketID = 1
	ClientLogout                 PacketID = 2
	ClientRequestStatusUpdate    PacketID = 3
	ClientPing                   PacketID = 4
	ClientSendPrivateMessage     PacketID = 25
	ClientPartLobby              PacketID = 29
	ClientJoinLobby              PacketID = 30
	ClientCreateMatch            PacketID = 31
	ClientJoinMatch              PacketID = 32
	ClientPartMatch              PacketID = 33
	ClientMatchChangeSlot        PacketID = 38
	ClientMatchReady             PacketID = 39
	ClientMatchLock              PacketID = 40
	ClientMatchChangeSettings    PacketID = 41
	ClientMatchStart             PacketID = 44
	ClientMatchScoreUpdate       PacketID = 47
	ClientMatchComplete          PacketID = 49
	ClientMatchChangeMods        PacketID = 51
	ClientMatchLoadComplete      PacketID = 52
	ClientMatchNoBeatmap         PacketID = 54
	ClientMatchNotReady          PacketID = 55
	ClientMatchFailed            PacketID = 56
	ClientMatchHasBeatmap        PacketID = 59
	ClientMatchSkipRequest       PacketID = 60
	ClientChannelJoin            PacketID = 63
	ClientMatchTransferHost      PacketID = 70
	ClientFriendAdd              PacketID = 73
	ClientFriendRemove           PacketID = 74
	ClientMatchChangeTeam        PacketID = 77
	ClientChannelPart            PacketID = 78
	ClientReceiveUpdates         PacketID = 79
	ClientSetAwayMessage         PacketID = 82
	ClientUserStatsRequest       PacketID = 85
	ClientMatchInvite            PacketID = 87
	ClientMatchChangePassword    PacketID = 90
	ClientUserPresenceRequest    PacketID = 97
	ClientUserPresenceRequestAll PacketID = 98

	// Extended client capability handshake and group (party) packets.
	ClientIdentify           PacketID = 120
	ClientCreateGroup        PacketID = 121
	ClientInviteGroup        PacketID = 122
	ClientAcceptGroup        PacketID = 123
	ClientGroupUsers         PacketID = 124
	ClientGroupKick          PacketID = 125
	ClientGroupLeave         PacketID = 126
	ClientDisbandGroup       PacketID = 127
	ClientCreateGroupMatch   PacketID = 128
	ClientDismountGroupMatch PacketID = 129
)

// Server-to-client packet ids.
const (
	ServerUserID                PacketID = 5
	ServerSendMessage           PacketID = 7
	ServerPong                  PacketID = 8
	ServerUserStats             PacketID = 11
	ServerUserLogout            PacketID = 12
	ServerNotification          PacketID = 24
	ServerUpdateMatch           PacketID = 26
	ServerNewMatch              PacketID = 27
	ServerDisposeMatch          PacketID = 28
	ServerMatchJoinSuccess      PacketID = 36
	ServerMatchJoinFail         PacketID = 37
	ServerMatchStart            PacketID = 46
	ServerMatchScoreUpdate      PacketID = 48
	ServerMatchTransferHost     PacketID = 50
	ServerMatchAllPlayersLoaded PacketID = 53
	ServerMatchPlayerFailed     PacketID = 57
	ServerMatchComplete         PacketID = 58
	ServerMatchSkip             PacketID = 61
	ServerChannelJoinSuccess    PacketID = 64
	ServerChannelInfo           PacketID = 65
	ServerChannelKick           PacketID = 66
	ServerChannelAutoJoin       PacketID = 67
	ServerPrivileges            PacketID = 71
	ServerFriendsList           PacketID = 72
	ServerProtocolVersion       PacketID = 75
	ServerMatchPlayerSkipped    PacketID = 81
	ServerUserPresence          PacketID = 83
	ServerRestart               PacketID = 86
	ServerMatchInvite           PacketID = 88
	ServerChannelInfoEnd        PacketID = 89
	ServerMatchChangePassword   PacketID = 91
	ServerSilenceEnd            PacketID = 92
	ServerUserPresenceSingle    PacketID = 95
	ServerUserPresenceBundle    PacketID = 96
	ServerAccountRestricted     PacketID = 104
	ServerMatchAbort            PacketID = 106

	ServerIdentify    PacketID = 130
	ServerGroupJoin   PacketID = 131
	ServerGroupLeave  PacketID = 132
	ServerGroupUsers  PacketID = 133
	ServerGroupInvite PacketID = 134
)

// Wire-level framing constants.
const (
	// HeaderSize is the fixed packet header: id (u16), a reserved byte,
	// and the payload length (u32).
	HeaderSize = 7

	// ProtocolVersion is the bancho protocol revision spoken by this server.
	ProtocolVersion = 19

	// MaxSlots is the number of seats in a multiplayer match.
	MaxSlots = 16
)

// SlotStatus describes the state of one multiplayer slot.
type SlotStatus uint8

const (
	SlotOpen     SlotStatus = 1 << 0
	SlotLocked   SlotStatus = 1 << 1
	SlotNotReady SlotStatus = 1 << 2
	SlotReady    SlotStatus = 1 << 3
	SlotNoMap    SlotStatus = 1 << 4
	SlotPlaying  SlotStatus = 1 << 5

	// SlotHasPlayer masks the statuses that imply an occupant.
	SlotHasPlayer = SlotNotReady | SlotReady | SlotNoMap | SlotPlaying
)

// MatchTeam is a slot's team assignment.
type MatchTeam uint8

const (
	TeamNeutral MatchTeam = 0
	TeamBlue    MatchTeam = 1
	TeamRed     MatchTeam = 2
)

// Message is the wire form of a chat message.
type Message struct {
	Sender    string
	Text      string
	Recipient string
	SenderID  int32
}

// MatchSlot is the wire form of one slot inside a match snapshot.
type MatchSlot struct {
	Status   SlotStatus
	Team     MatchTeam
	PlayerID int32
	Mods     int32
}

// Match is a wire snapshot of a multiplayer match. Encoders take this
// snapshot by value; they never reach back into live session state.
type Match struct {
	ID           int16
	InProgress   bool
	Powerplay    byte
	Mods         int32
	Name         string
	Password     string
	MapName      string
	MapID        int32
	MapMD5       string
	Slots        [MaxSlots]MatchSlot
	HostID       int32
	Mode         uint8
	WinCondition uint8
	TeamType     uint8
	FreeMods     bool
	Seed         int32
}

// ScoreFrame is the wire form of an in-game score update.
type ScoreFrame struct {
	Time         int32
	SlotID       uint8
	Count300     uint16
	Count100     uint16
	Count50      uint16
	CountGeki    uint16
	CountKatu    uint16
	CountMiss    uint16
	TotalScore   int32
	MaxCombo     uint16
	CurrentCombo uint16
	Perfect      bool
	CurrentHP    uint8
	TagByte      uint8
	ScoreV2      bool
	ComboPortion float64
	BonusPortion float64
}

// UserStats carries the fields of a user stats packet.
type UserStats struct {
	UserID      int32
	Action      uint8
	InfoText    string
	MapMD5      string
	Mods        int32
	Mode        uint8
	MapID       int32
	RankedScore int64
	Accuracy    float32 // 0..1
	Plays       int32
	TotalScore  int64
	GlobalRank  int32
	PP          int16
}

// UserPresence carries the fields of a user presence packet.
type UserPresence struct {
	UserID      int32
	Name        string
	UTCOffset   int8
	CountryCode uint8
	BanchoPrivs uint8
	Mode        uint8
	Longitude   float32
	Latitude    float32
	GlobalRank  int32
}
