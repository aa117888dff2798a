// Package wire implements the remctl on-wire packet and message framing.
//
// A Packet is the outer TCP-level envelope: a 1-byte flags field, a 4-byte
// big-endian length, and a payload. A Message is the inner structure carried
// inside a DATA packet's (decrypted) payload: a version byte, a type byte,
// and a type-specific body. Both codecs are pure, stateless transformers;
// neither holds a socket or security context.
package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Flag bits for the outer packet. OR-combined.
const (
	FlagNoop        uint8 = 0x01
	FlagContext     uint8 = 0x02
	FlagData        uint8 = 0x04
	FlagContextNext uint8 = 0x10
	FlagProtocol    uint8 = 0x40
)

// maxPayload is the largest payload length the 4-byte length field can carry.
const maxPayload = 1<<32 - 1

// Packet is the outer wire envelope: flags, big-endian length, and payload.
type Packet struct {
	Flags   uint8
	Payload []byte
}

// EncodePacket renders a Packet as its 5-byte header followed by the payload.
func EncodePacket(p Packet) ([]byte, error) {
	if uint64(len(p.Payload)) > maxPayload {
		return nil, fmt.Errorf("wire: payload of %d bytes exceeds maximum frame size", len(p.Payload))
	}

	out := make([]byte, 5+len(p.Payload))
	out[0] = p.Flags
	binary.BigEndian.PutUint32(out[1:5], uint32(len(p.Payload)))
	copy(out[5:], p.Payload)
	return out, nil
}

// ReadPacket reads one complete Packet from r, blocking until the 5-byte
// header and the full payload have arrived. A clean EOF before any header
// byte has been read returns io.EOF so callers can distinguish an orderly
// peer close from a mid-packet transport failure; io.ErrUnexpectedEOF is
// returned for the latter.
func ReadPacket(r *bufio.Reader) (Packet, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return Packet{}, io.EOF
		}
		return Packet{}, fmt.Errorf("wire: read packet header: %w", err)
	}

	flags := header[0]
	length := binary.BigEndian.Uint32(header[1:5])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Packet{}, fmt.Errorf("wire: read packet payload: %w", err)
	}

	return Packet{Flags: flags, Payload: payload}, nil
}
