package gssnegotiate

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/remctl/remctl-go/internal/wire"
)

// Sentinel errors for the handshake failures named in §4.4. Session
// translates these into the appropriate top-level Error kind.
var (
	ErrServerClosed       = errors.New("gssnegotiate: server closed connection")
	ErrUnsupportedV1      = errors.New("gssnegotiate: unsupported v1 server")
	ErrContextFlagMissing = errors.New("gssnegotiate: CONTEXT flag missing")
)

// MissingFlagsError reports that the negotiated context lacks one or more of
// RequiredFlags.
type MissingFlagsError struct {
	Negotiated ContextFlag
	Missing    ContextFlag
}

func (e *MissingFlagsError) Error() string {
	return fmt.Sprintf("gssnegotiate: negotiated flags %#x missing required %#x", e.Negotiated, e.Missing)
}

// Transport is the packet-level send/receive pair the handshake drives.
// Session constructs one over its live connection.
type Transport struct {
	W io.Writer
	R *bufio.Reader
}

func (t Transport) send(p wire.Packet) error {
	encoded, err := wire.EncodePacket(p)
	if err != nil {
		return err
	}
	_, err = t.W.Write(encoded)
	return err
}

func (t Transport) recv() (wire.Packet, error) {
	return wire.ReadPacket(t.R)
}

// Handshake drives ctx to establishment over tr, following §4.4 exactly:
// a NOOP|CONTEXT_NEXT bootstrap packet, then a token exchange loop, then a
// check that every required flag was actually negotiated.
func Handshake(tr Transport, ctx SecContext) error {
	if err := tr.send(wire.Packet{Flags: wire.FlagNoop | wire.FlagContextNext | wire.FlagProtocol}); err != nil {
		return fmt.Errorf("gssnegotiate: send bootstrap packet: %w", err)
	}

	tokenOut, err := ctx.Continue(nil)
	if err != nil {
		return fmt.Errorf("gssnegotiate: initial context step: %w", err)
	}

	for !ctx.IsEstablished() {
		if len(tokenOut) > 0 {
			if err := tr.send(wire.Packet{Flags: wire.FlagContext | wire.FlagProtocol, Payload: tokenOut}); err != nil {
				return fmt.Errorf("gssnegotiate: send context token: %w", err)
			}
		}

		pkt, err := tr.recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrServerClosed
			}
			return fmt.Errorf("gssnegotiate: read context token: %w", err)
		}
		if pkt.Flags&wire.FlagProtocol == 0 {
			return ErrUnsupportedV1
		}
		if pkt.Flags&wire.FlagContext == 0 {
			return ErrContextFlagMissing
		}

		tokenOut, err = ctx.Continue(pkt.Payload)
		if err != nil {
			return fmt.Errorf("gssnegotiate: context step: %w", err)
		}
	}

	if len(tokenOut) > 0 {
		if err := tr.send(wire.Packet{Flags: wire.FlagContext | wire.FlagProtocol, Payload: tokenOut}); err != nil {
			return fmt.Errorf("gssnegotiate: send final context token: %w", err)
		}
	}

	negotiated := ctx.ContextFlags()
	if missing := RequiredFlags &^ negotiated; missing != 0 {
		return &MissingFlagsError{Negotiated: negotiated, Missing: missing}
	}

	return nil
}
