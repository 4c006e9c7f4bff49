package protocol

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	ErrShortPacket   = errors.New("protocol: short packet")
	ErrPayloadTooBig = errors.New("protocol: payload exceeds 255 bytes")
	ErrUnknownType   = errors.New("protocol: unknown message type")
)

// AppendPacket appends the binary frame of m to dst.
// A frame is [len][type][payload], len counting payload bytes only.
func AppendPacket(dst []byte, m Message) ([]byte, error) {
	switch v := m.(type) {
	case WorldInfo:
		return append(dst, 2, PacketWorldInfo, v.Width, v.Height), nil
	case WorldUpdate:
		return append(dst, 4, PacketWorldUpdate, v.X, v.Y, v.Sprite, v.Food), nil
	case RawPacket:
		if len(v.Payload) > 0xFF {
			return dst, ErrPayloadTooBig
		}
		dst = append(dst, byte(len(v.Payload)), v.Type)
		return append(dst, v.Payload...), nil
	default:
		return dst, fmt.Errorf("%w: %T", ErrUnknownType, m)
	}
}

func EncodePacket(m Message) ([]byte, error) {
	return AppendPacket(make([]byte, 0, 6), m)
}

// Decoder reads binary frames from a stream. Packet types it does not know are
// returned as RawPacket so callers can skip them.
type Decoder struct {
	r    *bufio.Reader
	read uint64
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// BytesRead is the number of bytes consumed so far.
func (d *Decoder) BytesRead() uint64 { return d.read }

func (d *Decoder) Next() (Message, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
		return nil, err
	}
	payload := make([]byte, hdr[0])
	if _, err := io.ReadFull(d.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	d.read += uint64(len(hdr) + len(payload))

	switch hdr[1] {
	case PacketWorldInfo:
		if len(payload) < 2 {
			return nil, ErrShortPacket
		}
		return NewWorldInfo(int(payload[0]), int(payload[1])), nil
	case PacketWorldUpdate:
		if len(payload) < 4 {
			return nil, ErrShortPacket
		}
		return NewWorldUpdate(int(payload[0]), int(payload[1]), payload[2], payload[3]), nil
	default:
		return RawPacket{Type: hdr[1], Payload: payload}, nil
	}
}

// EncodeJSON renders m as a spectator text frame.
func EncodeJSON(m Message) ([]byte, error) {
	switch v := m.(type) {
	case WorldInfo:
		v.Type = TypeWorldInfo
		return json.Marshal(v)
	case WorldUpdate:
		v.Type = TypeWorldUpdate
		return json.Marshal(v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, m)
	}
}

func DecodeJSON(b []byte) (Message, error) {
	base, err := DecodeBase(b)
	if err != nil {
		return nil, err
	}
	switch base.Type {
	case TypeWorldInfo:
		var m WorldInfo
		err := json.Unmarshal(b, &m)
		return m, err
	case TypeWorldUpdate:
		var m WorldUpdate
		err := json.Unmarshal(b, &m)
		return m, err
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, base.Type)
	}
}
