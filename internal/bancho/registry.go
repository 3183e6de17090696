package bancho

import (
	"context"
	"encoding/binary"

	"github.com/rs/zerolog/log"

	"github.com/lagoon-project/lagoon/internal/protocol"
	"github.com/lagoon-project/lagoon/internal/state"
)

// HandlerFunc processes one decoded client packet for a live session.
// A returned error means the payload could not be decoded or applied;
// dispatch logs it and moves on to the next packet.
type HandlerFunc func(ctx context.Context, b *Bancho, p *state.Player, r *protocol.Reader) error

type handlerEntry struct {
	name string

	// restricted marks handlers that remain usable while the account is
	// privilege-restricted. Everything else is silently ignored for
	// restricted sessions.
	restricted bool

	fn HandlerFunc
}

// handlers is the static opcode dispatch table. It is built once and
// never mutated after init.
var handlers = map[protocol.PacketID]handlerEntry{
	protocol.ClientChangeAction:           {"change_action", true, handleChangeAction},
	protocol.ClientSendPublicMessage:      {"send_public_message", false, handleSendPublicMessage},
	protocol.ClientLogout:                 {"logout", true, handleLogout},
	protocol.ClientRequestStatusUpdate:    {"request_status_update", true, handleRequestStatusUpdate},
	protocol.ClientPing:                   {"ping", true, handlePing},
	protocol.ClientSendPrivateMessage:     {"send_private_message", false, handleSendPrivateMessage},
	protocol.ClientPartLobby:              {"part_lobby", true, handlePartLobby},
	protocol.ClientJoinLobby:              {"join_lobby", false, handleJoinLobby},
	protocol.ClientCreateMatch:            {"create_match", false, handleCreateMatch},
	protocol.ClientJoinMatch:              {"join_match", false, handleJoinMatch},
	protocol.ClientPartMatch:              {"part_match", true, handlePartMatch},
	protocol.ClientMatchChangeSlot:        {"match_change_slot", false, handleMatchChangeSlot},
	protocol.ClientMatchReady:             {"match_ready", false, handleMatchReady},
	protocol.ClientMatchLock:              {"match_lock", false, handleMatchLock},
	protocol.ClientMatchChangeSettings:    {"match_change_settings", false, handleMatchChangeSettings},
	protocol.ClientMatchStart:             {"match_start", false, handleMatchStart},
	protocol.ClientMatchScoreUpdate:       {"match_score_update", false, handleMatchScoreUpdate},
	protocol.ClientMatchComplete:          {"match_complete", false, handleMatchComplete},
	protocol.ClientMatchChangeMods:        {"match_change_mods", false, handleMatchChangeMods},
	protocol.ClientMatchLoadComplete:      {"match_load_complete", false, handleMatchLoadComplete},
	protocol.ClientMatchNoBeatmap:         {"match_no_beatmap", false, handleMatchNoBeatmap},
	protocol.ClientMatchNotReady:          {"match_not_ready", false, handleMatchNotReady},
	protocol.ClientMatchFailed:            {"match_failed", false, handleMatchFailed},
	protocol.ClientMatchHasBeatmap:        {"match_has_beatmap", false, handleMatchHasBeatmap},
	protocol.ClientMatchSkipRequest:       {"match_skip_request", false, handleMatchSkipRequest},
	protocol.ClientChannelJoin:            {"channel_join", true, handleChannelJoin},
	protocol.ClientMatchTransferHost:      {"match_transfer_host", false, handleMatchTransferHost},
	protocol.ClientFriendAdd:              {"friend_add", true, handleFriendAdd},
	protocol.ClientFriendRemove:           {"friend_remove", true, handleFriendRemove},
	protocol.ClientMatchChangeTeam:        {"match_change_team", false, handleMatchChangeTeam},
	protocol.ClientChannelPart:            {"channel_part", true, handleChannelPart},
	protocol.ClientReceiveUpdates:         {"receive_updates", true, handleReceiveUpdates},
	protocol.ClientSetAwayMessage:         {"set_away_message", true, handleSetAwayMessage},
	protocol.ClientUserStatsRequest:       {"user_stats_request", true, handleUserStatsRequest},
	protocol.ClientMatchInvite:            {"match_invite", false, handleMatchInvite},
	protocol.ClientMatchChangePassword:    {"match_change_password", false, handleMatchChangePassword},
	protocol.ClientUserPresenceRequest:    {"user_presence_request", true, handleUserPresenceRequest},
	protocol.ClientUserPresenceRequestAll: {"user_presence_request_all", true, handleUserPresenceRequestAll},

	protocol.ClientIdentify:           {"identify", true, handleIdentify},
	protocol.ClientCreateGroup:        {"create_group", false, handleCreateGroup},
	protocol.ClientInviteGroup:        {"invite_group", false, handleInviteGroup},
	protocol.ClientAcceptGroup:        {"accept_group", false, handleAcceptGroup},
	protocol.ClientGroupUsers:         {"group_users", false, handleGroupUsers},
	protocol.ClientGroupKick:          {"group_kick", false, handleGroupKick},
	protocol.ClientGroupLeave:         {"group_leave", true, handleGroupLeave},
	protocol.ClientDisbandGroup:       {"disband_group", true, handleDisbandGroup},
	protocol.ClientCreateGroupMatch:   {"create_group_match", false, handleCreateGroupMatch},
	protocol.ClientDismountGroupMatch: {"dismount_group_match", false, handleDismountGroupMatch},
}

// Process iterates the packets concatenated in a request body and
// dispatches each one in order. A truncated header or payload ends
// iteration; everything decoded before the damage has already been
// applied. Unknown opcodes are skipped over by their declared length.
func (b *Bancho) Process(ctx context.Context, p *state.Player, body []byte) {
	restricted := p.Restricted()

	for len(body) > 0 {
		if len(body) < protocol.HeaderSize {
			log.Debug().Int32("player_id", p.ID).Int("trailing", len(body)).
				Msg("truncated packet header, ending iteration")
			return
		}

		id := protocol.PacketID(binary.LittleEndian.Uint16(body[0:2]))
		length := binary.LittleEndian.Uint32(body[3:protocol.HeaderSize])
		body = body[protocol.HeaderSize:]

		if uint64(length) > uint64(len(body)) {
			log.Debug().Int32("player_id", p.ID).Uint16("opcode", uint16(id)).
				Uint32("declared", length).Int("have", len(body)).
				Msg("truncated packet payload, ending iteration")
			return
		}
		payload := body[:length]
		body = body[length:]

		entry, known := handlers[id]
		if !known {
			log.Trace().Int32("player_id", p.ID).Uint16("opcode", uint16(id)).
				Msg("unknown opcode skipped")
			continue
		}
		if restricted && !entry.restricted {
			continue
		}

		if err := entry.fn(ctx, b, p, protocol.NewReader(payload)); err != nil {
			log.Warn().Err(err).Int32("player_id", p.ID).
				Str("handler", entry.name).Msg("packet handler failed")
		}
	}
}
