package bancho

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lagoon-project/lagoon/internal/events"
	"github.com/lagoon-project/lagoon/internal/protocol"
	"github.com/lagoon-project/lagoon/internal/repo"
	"github.com/lagoon-project/lagoon/internal/state"
)

// Login result codes delivered through the user-id packet.
const (
	loginFailed         int32 = -1
	loginOutdatedClient int32 = -2
	loginBanned         int32 = -3
	loginServerError    int32 = -5
)

// NoToken is the cho-token value returned on failed logins.
const NoToken = "no"

// countryCodes maps ISO alpha-2 codes onto the numeric ids the client
// renders flags from. Unlisted countries fall back to 0 (unknown).
var countryCodes = map[string]uint8{
	"EU": 1, "AR": 11, "AU": 16, "AT": 17, "BE": 21, "BR": 31, "CA": 38,
	"CL": 40, "CN": 48, "CZ": 54, "DE": 56, "DK": 58, "ES": 67, "FI": 73,
	"FR": 74, "GB": 77, "HK": 89, "ID": 94, "IT": 103, "JP": 111,
	"KR": 112, "MX": 152, "MY": 153, "NL": 161, "NO": 166, "NZ": 167,
	"PH": 173, "PL": 176, "PT": 178, "RU": 182, "SE": 191, "SG": 192,
	"TH": 210, "TW": 220, "UA": 222, "US": 225, "VN": 233,
}

// loginRequest is the parsed form of the plaintext login body:
// three newline-separated lines, the third pipe-delimited.
type loginRequest struct {
	Username    string
	PasswordMD5 string
	Version     string
	UTCOffset   int8
}

func parseLoginBody(body []byte) (loginRequest, bool) {
	var req loginRequest

	lines := strings.SplitN(string(body), "\n", 4)
	if len(lines) < 3 {
		return req, false
	}
	req.Username = lines[0]
	req.PasswordMD5 = lines[1]

	fields := strings.Split(lines[2], "|")
	if len(fields) < 2 {
		return req, false
	}
	req.Version = fields[0]

	offset, err := strconv.Atoi(fields[1])
	if err != nil || offset < -12 || offset > 14 {
		return req, false
	}
	req.UTCOffset = int8(offset)

	return req, req.Username != "" && req.PasswordMD5 != ""
}

// clientYear extracts the release year from a client version string such
// as "b20210412.2". Returns 0 when unparseable.
func clientYear(version string) int {
	v := strings.TrimPrefix(version, "b")
	if len(v) < 4 {
		return 0
	}
	year, err := strconv.Atoi(v[:4])
	if err != nil {
		return 0
	}
	return year
}

func loginFailure(code int32, notification string) (string, []byte) {
	w := protocol.UserID(code)
	if notification != "" {
		w = append(w, protocol.Notification(notification)...)
	}
	return NoToken, w
}

// Login authenticates the plaintext login body and, on success, registers
// a new session and builds its initial packet stream. It returns the
// cho-token header value and the response body; failures return NoToken
// and a user-id error packet.
func (b *Bancho) Login(ctx context.Context, body []byte) (string, []byte) {
	req, ok := parseLoginBody(body)
	if !ok {
		return loginFailure(loginFailed, "")
	}

	srv := b.Cfg.GetServerData()
	if year := clientYear(req.Version); year != 0 && year < srv.MinClientYear {
		return loginFailure(loginOutdatedClient, "Your client is too old. Please update.")
	}

	account, err := b.Store.FetchAccountByName(ctx, req.Username)
	if err == repo.ErrNotFound {
		return loginFailure(loginFailed, "")
	}
	if err != nil {
		b.log.Error().Err(err).Str("name", req.Username).Msg("account lookup failed")
		return loginFailure(loginServerError, "Server error. Please try again.")
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordBcrypt), []byte(req.PasswordMD5)) != nil {
		return loginFailure(loginFailed, "")
	}

	if account.Privileges == 0 {
		return loginFailure(loginBanned, "")
	}

	if existing := b.World.Players.GetID(account.ID); existing != nil {
		// A second login bumps the old session rather than racing it.
		existing.Enqueue(protocol.Notification("You have logged in from another location."))
		b.LogoutPlayer(ctx, existing, "superseded")
	}

	p := state.NewPlayer(account.ID, account.Name, uuid.NewString(),
		state.Privileges(account.Privileges), req.UTCOffset)
	p.Country = countryCodes[account.Country]

	if clan := b.World.Clans.GetID(account.ClanID); clan != nil {
		p.ClanTag = clan.Tag
	}

	stats, err := b.Store.FetchStats(ctx, account.ID)
	if err != nil {
		b.log.Error().Err(err).Int32("player_id", account.ID).Msg("stats load failed")
		return loginFailure(loginServerError, "Server error. Please try again.")
	}
	for _, st := range stats {
		p.SetStats(st.Mode, state.ModeStats{
			RankedScore: st.RankedScore,
			TotalScore:  st.TotalScore,
			Accuracy:    st.Accuracy,
			Plays:       st.PlayCount,
			GlobalRank:  st.Rank,
			PP:          st.PP,
		})
	}

	friendIDs, err := b.Store.FetchFriendIDs(ctx, account.ID)
	if err != nil {
		b.log.Error().Err(err).Int32("player_id", account.ID).Msg("friends load failed")
		return loginFailure(loginServerError, "Server error. Please try again.")
	}
	for _, id := range friendIDs {
		p.AddFriend(id)
	}

	if err := b.World.Players.Add(p); err != nil {
		b.log.Error().Err(err).Int32("player_id", account.ID).Msg("session registration failed")
		return loginFailure(loginServerError, "Server error. Please try again.")
	}

	b.enqueueLoginStream(p, srv.WelcomeMessage)

	if !p.Restricted() {
		presence := p.PresencePacket()
		stats := p.StatsPacket()
		for _, other := range b.World.Players.All() {
			if other.ID != p.ID {
				other.Enqueue(presence)
				other.Enqueue(stats)
			}
		}
	}

	if err := b.Store.UpdateLatestActivity(ctx, p.ID); err != nil {
		b.log.Warn().Err(err).Int32("player_id", p.ID).Msg("failed to stamp activity")
	}

	b.Bus.Emit(ctx, events.Event{
		Type:   events.EventPlayerLogin,
		Source: "bancho",
		Payload: events.PlayerSessionPayload{
			PlayerID: p.ID,
			Name:     p.Name,
			Token:    p.Token,
		},
	})
	b.log.Info().Int32("player_id", p.ID).Str("name", p.Name).
		Str("version", req.Version).Msg("player logged in")

	return p.Token, p.Dequeue()
}

// enqueueLoginStream builds the packet sequence every fresh session
// receives: identity, privileges, channel listing, friends, and the
// presence of everyone already online.
func (b *Bancho) enqueueLoginStream(p *state.Player, welcome string) {
	p.Enqueue(protocol.ProtoVersion(protocol.ProtocolVersion))
	p.Enqueue(protocol.UserID(p.ID))
	p.Enqueue(protocol.BanchoPrivileges(int32(p.Privileges().ClientSide())))
	p.Enqueue(protocol.SilenceEnd(p.SilenceSecondsLeft()))

	if welcome != "" {
		p.Enqueue(protocol.Notification(welcome))
	}

	for _, c := range b.World.Channels.All() {
		if c.Instanced {
			continue
		}
		p.Enqueue(c.InfoPacket())
		if c.AutoJoin {
			p.Enqueue(protocol.ChannelAutoJoin(c.Name, c.Topic, int16(c.NumMembers())))
			b.World.JoinChannel(p, c)
		}
	}
	p.Enqueue(protocol.ChannelInfoEnd())

	p.Enqueue(protocol.FriendsList(p.FriendIDs()))
	p.Enqueue(p.PresencePacket())
	p.Enqueue(p.StatsPacket())

	// The id bundle first, then the detailed presence of everyone the
	// client is allowed to see.
	online := make([]int32, 0, b.World.Players.Len())
	for _, other := range b.World.Players.All() {
		if !other.Restricted() {
			online = append(online, other.ID)
		}
	}
	p.Enqueue(protocol.UserPresenceBundle(online))

	for _, other := range b.World.Players.All() {
		if other.ID == p.ID || other.Restricted() {
			continue
		}
		p.Enqueue(other.PresencePacket())
		p.Enqueue(other.StatsPacket())
	}

	if p.Restricted() {
		p.Enqueue(protocol.AccountRestricted())
		p.Enqueue(protocol.Notification(
			"Your account is currently restricted. You are hidden from other players."))
	}
}
