// Package segment builds the COMMAND message bodies for a remctl command,
// splitting the argument vector into multiple segments when the encoded
// arguments would otherwise exceed the protocol's message size limit (§4.3).
package segment

import (
	"encoding/binary"
	"fmt"

	"github.com/remctl/remctl-go/internal/wire"
)

// MessageSizeLimit is the largest argument payload a single COMMAND segment
// may carry. A command whose encoded arguments exceed this is split into
// multiple segments, chained via the continuation byte (§4.3).
const MessageSizeLimit = 65536

// Continuation reports where a COMMAND segment sits in a (possibly
// single-segment) chain.
type Continuation uint8

const (
	Single Continuation = Continuation(wire.ContinueSingle)
	First  Continuation = Continuation(wire.ContinueFirst)
	Middle Continuation = Continuation(wire.ContinueMiddle)
	Last   Continuation = Continuation(wire.ContinueLast)
)

// Body builds one COMMAND message body: keepalive flag, continuation byte,
// and (for the first or only segment) the 4-byte argument count, followed by
// the segment's length-prefixed argument data.
func Body(keepalive bool, cont Continuation, argc int, argData []byte) []byte {
	ka := byte(0)
	if keepalive {
		ka = 1
	}

	if cont == Single || cont == First {
		out := make([]byte, 6+len(argData))
		out[0] = ka
		out[1] = byte(cont)
		binary.BigEndian.PutUint32(out[2:6], uint32(argc))
		copy(out[6:], argData)
		return out
	}

	out := make([]byte, 2+len(argData))
	out[0] = ka
	out[1] = byte(cont)
	copy(out[2:], argData)
	return out
}

// Command splits args into one or more COMMAND message bodies, ready to be
// wrapped individually with wire.EncodeMessage(wire.MsgCommand, ...) and sent
// in order. A command whose arguments fit within MessageSizeLimit produces a
// single body with continuation Single; a longer command produces a First
// body, zero or more Middle bodies, and a Last body.
func Command(args []string, keepalive bool) ([][]byte, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("segment: command requires at least one argument")
	}

	var chunks [][]byte
	var current []byte
	for _, arg := range args {
		encoded := []byte(arg)
		if len(current)+4+len(encoded) > MessageSizeLimit {
			chunks = append(chunks, current)
			current = nil
		}
		entry := make([]byte, 4+len(encoded))
		binary.BigEndian.PutUint32(entry[0:4], uint32(len(encoded)))
		copy(entry[4:], encoded)
		current = append(current, entry...)
	}
	chunks = append(chunks, current)

	argc := len(args)
	if len(chunks) == 1 {
		return [][]byte{Body(keepalive, Single, argc, chunks[0])}, nil
	}

	bodies := make([][]byte, 0, len(chunks))
	bodies = append(bodies, Body(keepalive, First, argc, chunks[0]))
	for _, middle := range chunks[1 : len(chunks)-1] {
		bodies = append(bodies, Body(keepalive, Middle, 0, middle))
	}
	bodies = append(bodies, Body(keepalive, Last, 0, chunks[len(chunks)-1]))
	return bodies, nil
}
