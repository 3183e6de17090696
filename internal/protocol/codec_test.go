package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagoon-project/lagoon/internal/protocol"
)

func TestStringRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"ascii", "hello world"},
		{"utf8", "группа π ✓"},
		{"long", string(make([]byte, 300))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := protocol.NewWriter()
			w.WriteString(tt.value)

			r := protocol.NewReader(w.Bytes())
			got, err := r.ReadString()
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
			assert.Equal(t, 0, r.Remaining())
		})
	}
}

func TestStringEncoding(t *testing.T) {
	// The empty string is a single absent byte; everything else carries
	// the 0x0b presence byte and a ULEB128 length.
	w := protocol.NewWriter()
	w.WriteString("")
	assert.Equal(t, []byte{0x00}, w.Bytes())

	w.Reset()
	w.WriteString("osu")
	assert.Equal(t, []byte{0x0b, 0x03, 'o', 's', 'u'}, w.Bytes())
}

func TestStringBadPresenceByte(t *testing.T) {
	r := protocol.NewReader([]byte{0x07, 0x01, 'x'})
	_, err := r.ReadString()
	assert.ErrorIs(t, err, protocol.ErrBadString)
}

func TestUleb128RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 16384, 1<<32 - 1, 1 << 40}

	for _, v := range values {
		w := protocol.NewWriter()
		w.WriteUleb128(v)

		r := protocol.NewReader(w.Bytes())
		got, err := r.ReadUleb128()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestReaderBounds(t *testing.T) {
	// Every primitive read checks bounds; nothing may read past the slice.
	r := protocol.NewReader([]byte{0x01, 0x02})

	_, err := r.ReadInt32()
	assert.ErrorIs(t, err, protocol.ErrBufferExhausted)

	// The failed read must not have advanced the cursor past the end.
	v, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), v)

	_, err = r.ReadUint8()
	assert.ErrorIs(t, err, protocol.ErrBufferExhausted)
}

func TestReaderTruncatedString(t *testing.T) {
	// Declared length exceeds the remaining bytes.
	r := protocol.NewReader([]byte{0x0b, 0x10, 'a', 'b'})
	_, err := r.ReadString()
	assert.ErrorIs(t, err, protocol.ErrBufferExhausted)
}

func TestMessageRoundTrip(t *testing.T) {
	in := protocol.Message{
		Sender:    "alice",
		Text:      "hello there",
		Recipient: "#osu",
		SenderID:  42,
	}

	w := protocol.NewWriter()
	w.WriteMessage(in)

	r := protocol.NewReader(w.Bytes())
	got, err := r.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func matchFixture() protocol.Match {
	m := protocol.Match{
		ID:           3,
		InProgress:   false,
		Mods:         64,
		Name:         "rapid room",
		Password:     "hunter2",
		MapName:      "artist - title",
		MapID:        123456,
		MapMD5:       "d41d8cd98f00b204e9800998ecf8427e",
		HostID:       1001,
		Mode:         0,
		WinCondition: 1,
		TeamType:     0,
		Seed:         987,
	}
	for i := range m.Slots {
		m.Slots[i].Status = protocol.SlotOpen
	}
	m.Slots[0] = protocol.MatchSlot{Status: protocol.SlotNotReady, PlayerID: 1001}
	m.Slots[1] = protocol.MatchSlot{Status: protocol.SlotReady, Team: protocol.TeamRed, PlayerID: 1002}
	m.Slots[5] = protocol.MatchSlot{Status: protocol.SlotLocked}
	return m
}

func TestMatchRoundTrip(t *testing.T) {
	in := matchFixture()

	w := protocol.NewWriter()
	w.WriteMatch(in, true)

	r := protocol.NewReader(w.Bytes())
	got, err := r.ReadMatch()
	require.NoError(t, err)
	assert.Equal(t, in, got)
	assert.Equal(t, 0, r.Remaining())
}

func TestMatchRoundTripFreeMods(t *testing.T) {
	in := matchFixture()
	in.FreeMods = true
	in.Slots[0].Mods = 8
	in.Slots[1].Mods = 16

	w := protocol.NewWriter()
	w.WriteMatch(in, true)

	r := protocol.NewReader(w.Bytes())
	got, err := r.ReadMatch()
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestMatchPasswordMasking(t *testing.T) {
	in := matchFixture()

	w := protocol.NewWriter()
	w.WriteMatch(in, false)

	r := protocol.NewReader(w.Bytes())
	got, err := r.ReadMatch()
	require.NoError(t, err)

	// Lobby observers learn the match is locked but never the password.
	assert.Equal(t, "", got.Password)
	got.Password = in.Password
	assert.Equal(t, in, got)
}

func TestScoreFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		frame protocol.ScoreFrame
	}{
		{
			name: "scorev1",
			frame: protocol.ScoreFrame{
				Time:         5120,
				SlotID:       2,
				Count300:     120,
				Count100:     14,
				Count50:      1,
				CountMiss:    3,
				TotalScore:   417263,
				MaxCombo:     144,
				CurrentCombo: 12,
				CurrentHP:    180,
			},
		},
		{
			name: "scorev2 carries portions",
			frame: protocol.ScoreFrame{
				Time:         9999,
				SlotID:       0,
				Count300:     50,
				TotalScore:   100000,
				Perfect:      true,
				ScoreV2:      true,
				ComboPortion: 321.5,
				BonusPortion: 12.25,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := protocol.NewWriter()
			w.WriteScoreFrame(tt.frame)

			r := protocol.NewReader(w.Bytes())
			got, err := r.ReadScoreFrame()
			require.NoError(t, err)
			assert.Equal(t, tt.frame, got)
			assert.Equal(t, 0, r.Remaining())
		})
	}
}

func TestPacketFraming(t *testing.T) {
	w := protocol.NewWriter()
	w.WriteInt32(1001)
	pkt := w.Packet(protocol.ServerUserID)

	require.Len(t, pkt, protocol.HeaderSize+4)
	assert.Equal(t, byte(protocol.ServerUserID), pkt[0])
	assert.Equal(t, byte(0), pkt[1])
	assert.Equal(t, byte(0), pkt[2]) // reserved byte
	assert.Equal(t, byte(4), pkt[3]) // payload length, little-endian
	assert.Equal(t, []byte{0, 0, 0}, pkt[4:7])
}

func TestNotificationPacket(t *testing.T) {
	pkt := protocol.Notification("hi")

	assert.Equal(t, byte(protocol.ServerNotification), pkt[0])
	r := protocol.NewReader(pkt[protocol.HeaderSize:])
	msg, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "hi", msg)
}

func TestInt32ListRoundTrip(t *testing.T) {
	in := []int32{1, -5, 70000}

	w := protocol.NewWriter()
	w.WriteInt32List(in)

	r := protocol.NewReader(w.Bytes())
	got, err := r.ReadInt32List()
	require.NoError(t, err)
	assert.Equal(t, in, got)
}
