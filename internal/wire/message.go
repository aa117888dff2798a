package wire

import (
	"encoding/binary"
	"fmt"
)

// Message types carried in a DATA packet's decrypted payload.
const (
	MsgCommand uint8 = 1
	MsgQuit    uint8 = 2
	MsgOutput  uint8 = 3
	MsgStatus  uint8 = 4
	MsgError   uint8 = 5
	MsgVersion uint8 = 6
	MsgNoop    uint8 = 7
)

// Output streams carried in an OUTPUT message body.
const (
	StreamStdout uint8 = 1
	StreamStderr uint8 = 2
)

// Continuation states for a COMMAND segment.
const (
	ContinueSingle uint8 = 0
	ContinueFirst  uint8 = 1
	ContinueMiddle uint8 = 2
	ContinueLast   uint8 = 3
)

// protocolVersion returns the version byte the client must send for msgType:
// 3 for NOOP, 2 for everything else (§3).
func protocolVersion(msgType uint8) uint8 {
	if msgType == MsgNoop {
		return 3
	}
	return 2
}

// ProtocolError reports a violated wire-format invariant: a length mismatch,
// a body or header that is too short, or an unsupported protocol version.
type ProtocolError struct {
	msg string
}

func (e *ProtocolError) Error() string { return e.msg }

func newProtocolError(format string, args ...any) *ProtocolError {
	return &ProtocolError{msg: fmt.Sprintf(format, args...)}
}

// EncodeMessage prepends the version and type bytes to body and returns the
// resulting inner message, ready to be wrapped and sent in a DATA packet.
func EncodeMessage(msgType uint8, body []byte) []byte {
	out := make([]byte, 2+len(body))
	out[0] = protocolVersion(msgType)
	out[1] = msgType
	copy(out[2:], body)
	return out
}

// Message is a decoded inner remctl message.
type Message struct {
	Version uint8
	Type    uint8
	Body    []byte
}

// DecodeMessage splits a message into its version, type, and body, without
// interpreting the body. A version below 2 is always a protocol error (§3);
// callers that additionally require version 3 (NOOP replies) check that
// themselves.
func DecodeMessage(data []byte) (Message, error) {
	if len(data) < 2 {
		return Message{}, newProtocolError("message shorter than the 2-byte header")
	}

	m := Message{Version: data[0], Type: data[1], Body: data[2:]}
	if m.Version < 2 {
		return Message{}, newProtocolError("server sent protocol version %d, want >= 2", m.Version)
	}
	return m, nil
}

// Output is a decoded OUTPUT message body.
type Output struct {
	Stream uint8
	Chunk  []byte
}

// DecodeOutput parses an OUTPUT message body: a stream byte, a 4-byte
// big-endian length, and the chunk itself. The declared length must equal
// the remaining bytes exactly (§3); a zero-length chunk is valid and is
// returned as an empty, non-nil slice rather than being filtered out.
func DecodeOutput(body []byte) (Output, error) {
	if len(body) < 5 {
		return Output{}, newProtocolError("output body shorter than the 5-byte header")
	}

	stream := body[0]
	length := binary.BigEndian.Uint32(body[1:5])
	chunk := body[5:]
	if uint32(len(chunk)) != length {
		return Output{}, newProtocolError("output declared length %d but carried %d bytes", length, len(chunk))
	}

	return Output{Stream: stream, Chunk: chunk}, nil
}

// DecodeStatus parses a STATUS message body: a single exit-code byte.
func DecodeStatus(body []byte) (uint8, error) {
	if len(body) != 1 {
		return 0, newProtocolError("status body must be exactly 1 byte, got %d", len(body))
	}
	return body[0], nil
}

// RemoteError is a decoded ERROR message body.
type RemoteError struct {
	Code    uint32
	Message []byte
}

// DecodeError parses an ERROR message body: a 4-byte code, a 4-byte
// big-endian length, and the message text. The declared length must equal
// the remaining bytes exactly (§3).
func DecodeError(body []byte) (RemoteError, error) {
	if len(body) < 8 {
		return RemoteError{}, newProtocolError("error body shorter than the 8-byte header")
	}

	code := binary.BigEndian.Uint32(body[0:4])
	length := binary.BigEndian.Uint32(body[4:8])
	message := body[8:]
	if uint32(len(message)) != length {
		return RemoteError{}, newProtocolError("error declared length %d but carried %d bytes", length, len(message))
	}

	return RemoteError{Code: code, Message: message}, nil
}
