package gssnegotiate

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/remctl/remctl-go/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeContext is a two-round GSSAPI context: the first Continue call (no
// input) produces an outbound token, the second (fed the peer's reply)
// establishes the context with the configured flags.
type fakeContext struct {
	flags       ContextFlag
	round       int
	established bool
	failStep    int
}

func (f *fakeContext) Continue(tokenIn []byte) ([]byte, error) {
	f.round++
	if f.failStep == f.round {
		return nil, assert.AnError
	}
	if f.round == 1 {
		return []byte("init-token"), nil
	}
	f.established = true
	return nil, nil
}

func (f *fakeContext) IsEstablished() bool                   { return f.established }
func (f *fakeContext) ContextFlags() ContextFlag             { return f.flags }
func (f *fakeContext) Wrap(p []byte, _ bool) ([]byte, error) { return p, nil }
func (f *fakeContext) Unwrap(p []byte) ([]byte, bool, error) { return p, true, nil }
func (f *fakeContext) Delete() error                         { return nil }

func readPacketFrom(t *testing.T, conn net.Conn) wire.Packet {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	pkt, err := wire.ReadPacket(bufio.NewReader(conn))
	require.NoError(t, err)
	return pkt
}

func writePacketTo(t *testing.T, conn net.Conn, pkt wire.Packet) {
	t.Helper()
	encoded, err := wire.EncodePacket(pkt)
	require.NoError(t, err)
	_, err = conn.Write(encoded)
	require.NoError(t, err)
}

func TestHandshakeSuccess(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	ctx := &fakeContext{flags: RequiredFlags}
	tr := Transport{W: clientConn, R: bufio.NewReader(clientConn)}

	done := make(chan error, 1)
	go func() { done <- Handshake(tr, ctx) }()

	bootstrap := readPacketFrom(t, serverConn)
	assert.Equal(t, wire.FlagNoop|wire.FlagContextNext|wire.FlagProtocol, bootstrap.Flags)

	ctxPkt := readPacketFrom(t, serverConn)
	assert.Equal(t, wire.FlagContext|wire.FlagProtocol, ctxPkt.Flags)
	assert.Equal(t, "init-token", string(ctxPkt.Payload))

	writePacketTo(t, serverConn, wire.Packet{Flags: wire.FlagContext | wire.FlagProtocol, Payload: []byte("server-token")})

	require.NoError(t, <-done)
}

func TestHandshakeRejectsV1Server(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	ctx := &fakeContext{flags: RequiredFlags}
	tr := Transport{W: clientConn, R: bufio.NewReader(clientConn)}

	done := make(chan error, 1)
	go func() { done <- Handshake(tr, ctx) }()

	readPacketFrom(t, serverConn) // bootstrap
	readPacketFrom(t, serverConn) // initial context token

	writePacketTo(t, serverConn, wire.Packet{Flags: wire.FlagContext, Payload: []byte("no-protocol-bit")})

	err := <-done
	assert.ErrorIs(t, err, ErrUnsupportedV1)
}

func TestHandshakeRejectsMissingContextFlag(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	ctx := &fakeContext{flags: RequiredFlags}
	tr := Transport{W: clientConn, R: bufio.NewReader(clientConn)}

	done := make(chan error, 1)
	go func() { done <- Handshake(tr, ctx) }()

	readPacketFrom(t, serverConn)
	readPacketFrom(t, serverConn)

	writePacketTo(t, serverConn, wire.Packet{Flags: wire.FlagProtocol, Payload: []byte("no-context-bit")})

	err := <-done
	assert.ErrorIs(t, err, ErrContextFlagMissing)
}

func TestHandshakeServerClosesCleanly(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	ctx := &fakeContext{flags: RequiredFlags}
	tr := Transport{W: clientConn, R: bufio.NewReader(clientConn)}

	done := make(chan error, 1)
	go func() { done <- Handshake(tr, ctx) }()

	readPacketFrom(t, serverConn)
	readPacketFrom(t, serverConn)
	serverConn.Close()

	err := <-done
	assert.ErrorIs(t, err, ErrServerClosed)
}

func TestHandshakeRejectsMissingFlags(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	ctx := &fakeContext{flags: ContextFlagConf | ContextFlagInteg}
	tr := Transport{W: clientConn, R: bufio.NewReader(clientConn)}

	done := make(chan error, 1)
	go func() { done <- Handshake(tr, ctx) }()

	readPacketFrom(t, serverConn)
	readPacketFrom(t, serverConn)
	writePacketTo(t, serverConn, wire.Packet{Flags: wire.FlagContext | wire.FlagProtocol, Payload: []byte("server-token")})

	err := <-done
	require.Error(t, err)
	var missingErr *MissingFlagsError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, RequiredFlags&^(ContextFlagConf|ContextFlagInteg), missingErr.Missing)
}
