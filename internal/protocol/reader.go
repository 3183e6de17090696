package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrBufferExhausted is returned when a read would pass the end of the
// payload. Payload lengths are client-controlled, so every primitive read
// checks bounds before advancing.
var ErrBufferExhausted = errors.New("protocol: read past end of buffer")

// ErrBadString is returned when a string field carries an unknown
// presence byte.
var ErrBadString = errors.New("protocol: invalid string presence byte")

// Reader decodes primitives from a packet payload, advancing a cursor
// over the underlying buffer. It never reads outside the slice it was
// constructed with.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader over buf. The Reader does not copy buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, fmt.Errorf("%w (want %d, have %d)", ErrBufferExhausted, n, r.Remaining())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip advances the cursor by n bytes without decoding them.
func (r *Reader) Skip(n int) error {
	_, err := r.take(n)
	return err
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBool reads a byte and interprets any non-zero value as true.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUint8()
	return v != 0, err
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadInt16 reads a little-endian int16.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadInt64 reads a little-endian int64.
func (r *Reader) ReadInt64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

// ReadFloat32 reads a little-endian IEEE 754 float32.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFloat64 reads a little-endian IEEE 754 float64.
func (r *Reader) ReadFloat64() (float64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// ReadUleb128 reads an unsigned LEB128-encoded integer.
func (r *Reader) ReadUleb128() (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadUint8()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift > 63 {
			return 0, fmt.Errorf("%w (uleb128 overflow)", ErrBufferExhausted)
		}
	}
}

// ReadString reads an osu string: 0x00 means absent (empty), 0x0b means a
// ULEB128 length followed by that many UTF-8 bytes.
func (r *Reader) ReadString() (string, error) {
	presence, err := r.ReadUint8()
	if err != nil {
		return "", err
	}
	switch presence {
	case 0x00:
		return "", nil
	case 0x0b:
		length, err := r.ReadUleb128()
		if err != nil {
			return "", err
		}
		b, err := r.take(int(length))
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("%w: 0x%02x", ErrBadString, presence)
	}
}

// ReadInt32List reads a u16 count followed by that many int32s. Used by
// the friends-list and presence-request packets.
func (r *Reader) ReadInt32List() ([]int32, error) {
	count, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	out := make([]int32, 0, count)
	for i := 0; i < int(count); i++ {
		v, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ReadMessage decodes a chat message.
func (r *Reader) ReadMessage() (Message, error) {
	var m Message
	var err error
	if m.Sender, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Text, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Recipient, err = r.ReadString(); err != nil {
		return m, err
	}
	m.SenderID, err = r.ReadInt32()
	return m, err
}

// ReadMatch decodes a match snapshot as sent by the client on match
// creation and settings changes.
func (r *Reader) ReadMatch() (Match, error) {
	var m Match
	var err error

	if m.ID, err = r.ReadInt16(); err != nil {
		return m, err
	}
	if m.InProgress, err = r.ReadBool(); err != nil {
		return m, err
	}
	if m.Powerplay, err = r.ReadUint8(); err != nil {
		return m, err
	}
	if m.Mods, err = r.ReadInt32(); err != nil {
		return m, err
	}
	if m.Name, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Password, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.MapName, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.MapID, err = r.ReadInt32(); err != nil {
		return m, err
	}
	if m.MapMD5, err = r.ReadString(); err != nil {
		return m, err
	}
	for i := 0; i < MaxSlots; i++ {
		s, err := r.ReadUint8()
		if err != nil {
			return m, err
		}
		m.Slots[i].Status = SlotStatus(s)
	}
	for i := 0; i < MaxSlots; i++ {
		t, err := r.ReadUint8()
		if err != nil {
			return m, err
		}
		m.Slots[i].Team = MatchTeam(t)
	}
	for i := 0; i < MaxSlots; i++ {
		if m.Slots[i].Status&SlotHasPlayer != 0 {
			if m.Slots[i].PlayerID, err = r.ReadInt32(); err != nil {
				return m, err
			}
		}
	}
	if m.HostID, err = r.ReadInt32(); err != nil {
		return m, err
	}
	if m.Mode, err = r.ReadUint8(); err != nil {
		return m, err
	}
	if m.WinCondition, err = r.ReadUint8(); err != nil {
		return m, err
	}
	if m.TeamType, err = r.ReadUint8(); err != nil {
		return m, err
	}
	if m.FreeMods, err = r.ReadBool(); err != nil {
		return m, err
	}
	if m.FreeMods {
		for i := 0; i < MaxSlots; i++ {
			if m.Slots[i].Mods, err = r.ReadInt32(); err != nil {
				return m, err
			}
		}
	}
	m.Seed, err = r.ReadInt32()
	return m, err
}

// ReadScoreFrame decodes an in-game score frame.
func (r *Reader) ReadScoreFrame() (ScoreFrame, error) {
	var f ScoreFrame
	var err error

	if f.Time, err = r.ReadInt32(); err != nil {
		return f, err
	}
	if f.SlotID, err = r.ReadUint8(); err != nil {
		return f, err
	}
	if f.Count300, err = r.ReadUint16(); err != nil {
		return f, err
	}
	if f.Count100, err = r.ReadUint16(); err != nil {
		return f, err
	}
	if f.Count50, err = r.ReadUint16(); err != nil {
		return f, err
	}
	if f.CountGeki, err = r.ReadUint16(); err != nil {
		return f, err
	}
	if f.CountKatu, err = r.ReadUint16(); err != nil {
		return f, err
	}
	if f.CountMiss, err = r.ReadUint16(); err != nil {
		return f, err
	}
	if f.TotalScore, err = r.ReadInt32(); err != nil {
		return f, err
	}
	if f.MaxCombo, err = r.ReadUint16(); err != nil {
		return f, err
	}
	if f.CurrentCombo, err = r.ReadUint16(); err != nil {
		return f, err
	}
	if f.Perfect, err = r.ReadBool(); err != nil {
		return f, err
	}
	if f.CurrentHP, err = r.ReadUint8(); err != nil {
		return f, err
	}
	if f.TagByte, err = r.ReadUint8(); err != nil {
		return f, err
	}
	if f.ScoreV2, err = r.ReadBool(); err != nil {
		return f, err
	}
	if f.ScoreV2 {
		if f.ComboPortion, err = r.ReadFloat64(); err != nil {
			return f, err
		}
		if f.BonusPortion, err = r.ReadFloat64(); err != nil {
			return f, err
		}
	}
	return f, nil
}
