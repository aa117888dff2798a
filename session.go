package remctl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/remctl/remctl-go/internal/clientmetrics"
	"github.com/remctl/remctl-go/internal/gssnegotiate"
	"github.com/remctl/remctl-go/internal/logger"
	"github.com/remctl/remctl-go/internal/segment"
	"github.com/remctl/remctl-go/internal/wire"
)

type sessionState int

const (
	stateDisconnected sessionState = iota
	stateHandshaking
	stateReady
	stateAwaitingResponses
	stateClosed
)

// Session is a single remctl connection (§4.5). It is not safe for
// concurrent use; callers needing parallelism open independent Sessions.
type Session struct {
	provider gssnegotiate.Provider

	state       sessionState
	outstanding int

	conn net.Conn
	r    *bufio.Reader
	ctx  gssnegotiate.SecContext

	cred     *Credential
	sourceIP string
	timeout  time.Duration

	lastError []byte
	logCtx    context.Context
	metrics   *clientmetrics.Metrics
}

// NewSession creates an unopened Session that will use provider to
// negotiate its GSSAPI context.
func NewSession(provider gssnegotiate.Provider) *Session {
	return &Session{provider: provider, state: stateDisconnected, logCtx: context.Background()}
}

// SetMetrics attaches Prometheus instrumentation to the Session. It is
// optional; a Session with no metrics attached behaves identically, just
// without recording anything.
func (s *Session) SetMetrics(m *clientmetrics.Metrics) {
	s.metrics = m
}

func notOpenErrorOutsideDisconnected(op string) error {
	return fmt.Errorf("remctl: %s: only valid before open()", op)
}

// SetCredential installs the initiator credential to use on the next Open.
// Valid only before the Session is opened (§4.5).
func (s *Session) SetCredential(cred Credential) error {
	if s.state != stateDisconnected {
		return notOpenErrorOutsideDisconnected("set_credential")
	}
	if !cred.canInitiate() {
		return ErrInvalidCredentialUsage
	}
	s.cred = &cred
	return nil
}

// SetSourceIP binds the next Open's outbound connection to addr.
func (s *Session) SetSourceIP(addr string) error {
	if s.state != stateDisconnected {
		return notOpenErrorOutsideDisconnected("set_source_ip")
	}
	s.sourceIP = addr
	return nil
}

// SetTimeout bounds the next Open's TCP connect. seconds must be >= 0.
func (s *Session) SetTimeout(seconds float64) error {
	if s.state != stateDisconnected {
		return notOpenErrorOutsideDisconnected("set_timeout")
	}
	if seconds < 0 {
		return ErrInvalidTimeout
	}
	s.timeout = time.Duration(seconds * float64(time.Second))
	return nil
}

// Open connects to host:port and drives the GSSAPI handshake to completion
// (§4.4, §4.5). On success the Session is Ready.
func (s *Session) Open(host string, port int, target TargetName) (err error) {
	if s.state != stateDisconnected {
		return notOpenErrorOutsideDisconnected("open")
	}

	s.logCtx = logger.WithContext(context.Background(), logger.NewLogContext(host, port))
	s.state = stateHandshaking

	logger.DebugCtx(s.logCtx, "connecting", logger.KeyHost, host, logger.KeyPort, port)

	opts := ConnectOptions{Timeout: s.timeout, SourceIP: s.sourceIP}
	conn, err := dialTCP(host, port, opts)
	if err != nil {
		s.state = stateDisconnected
		return wrapError("connect failed", err)
	}

	s.conn = conn
	s.r = bufio.NewReader(conn)

	var cred gssnegotiate.Credential
	if s.cred != nil {
		cred = s.cred.Underlying
	}

	secCtx, err := s.provider.Initiate(target, gssnegotiate.RequiredFlags, cred)
	if err != nil {
		s.closeTransportOnly()
		s.state = stateDisconnected
		s.metrics.RecordHandshakeFailure("negotiation")
		return wrapError("gssapi initiate failed", err)
	}
	s.ctx = secCtx

	handshakeStart := time.Now()
	tr := gssnegotiate.Transport{W: s.conn, R: s.r}
	if err := gssnegotiate.Handshake(tr, secCtx); err != nil {
		s.closeTransportOnly()
		s.state = stateDisconnected
		s.metrics.RecordHandshakeFailure(handshakeFailureReason(err))
		return translateHandshakeError(err)
	}
	s.metrics.RecordHandshake(time.Since(handshakeStart))

	s.state = stateReady
	s.outstanding = 0
	logger.DebugCtx(s.logCtx, "session ready")
	return nil
}

func handshakeFailureReason(err error) string {
	switch {
	case errors.Is(err, gssnegotiate.ErrServerClosed):
		return "transport"
	case errors.Is(err, gssnegotiate.ErrUnsupportedV1), errors.Is(err, gssnegotiate.ErrContextFlagMissing):
		return "protocol"
	default:
		var missing *gssnegotiate.MissingFlagsError
		if errors.As(err, &missing) {
			return "flags"
		}
		return "negotiation"
	}
}

func translateHandshakeError(err error) error {
	switch {
	case errors.Is(err, gssnegotiate.ErrServerClosed):
		return newError("server closed connection")
	case errors.Is(err, gssnegotiate.ErrUnsupportedV1):
		return newError("unsupported v1 server")
	case errors.Is(err, gssnegotiate.ErrContextFlagMissing):
		return newError("CONTEXT flag missing")
	default:
		var missing *gssnegotiate.MissingFlagsError
		if errors.As(err, &missing) {
			return wrapError("required security flags not negotiated", missing)
		}
		return wrapError("gssapi negotiation failed", err)
	}
}

// Command sends args as a (possibly multi-segment) COMMAND and increments
// outstanding (§4.3, §4.5).
func (s *Session) Command(args []string, keepalive bool) error {
	if s.state != stateReady && s.state != stateAwaitingResponses {
		return &NotOpenedError{Op: "command"}
	}
	if len(args) == 0 {
		return ErrEmptyCommand
	}

	bodies, err := segment.Command(args, keepalive)
	if err != nil {
		return &ValidationError{Message: err.Error()}
	}

	for _, body := range bodies {
		msg := wire.EncodeMessage(wire.MsgCommand, body)
		if err := s.sendWrapped(msg); err != nil {
			s.fatal(err)
			s.metrics.RecordCommand(false)
			return err
		}
	}

	s.outstanding++
	s.state = stateAwaitingResponses
	s.metrics.RecordCommand(true)
	s.metrics.SetOutstanding(s.outstanding)
	logger.DebugCtx(s.logCtx, "command sent", logger.KeyArgc, len(args), logger.KeySegments, len(bodies), logger.KeyOutstand, s.outstanding)
	return nil
}

// Output reads and decodes the next response message, or returns
// {Type: OutputDone} immediately if no command is outstanding (§4.5).
func (s *Session) Output() (Output, error) {
	if s.state != stateReady && s.state != stateAwaitingResponses {
		return Output{}, &NotOpenedError{Op: "output"}
	}
	if s.outstanding == 0 {
		return Output{Type: OutputDone}, nil
	}

	body, err := s.recvWrapped()
	if err != nil {
		s.fatal(err)
		return Output{}, err
	}

	msg, err := wire.DecodeMessage(body)
	if err != nil {
		protoErr := wrapProtocolError(err)
		s.fatal(protoErr)
		return Output{}, protoErr
	}

	switch msg.Type {
	case wire.MsgOutput:
		out, err := wire.DecodeOutput(msg.Body)
		if err != nil {
			protoErr := wrapProtocolError(err)
			s.fatal(protoErr)
			return Output{}, protoErr
		}
		return Output{Type: OutputChunk, Stream: Stream(out.Stream), Chunk: out.Chunk}, nil

	case wire.MsgStatus:
		code, err := wire.DecodeStatus(msg.Body)
		if err != nil {
			protoErr := wrapProtocolError(err)
			s.fatal(protoErr)
			return Output{}, protoErr
		}
		s.commandFinished()
		return Output{Type: OutputStatus, ExitCode: code}, nil

	case wire.MsgError:
		remoteErr, err := wire.DecodeError(msg.Body)
		if err != nil {
			protoErr := wrapProtocolError(err)
			s.fatal(protoErr)
			return Output{}, protoErr
		}
		s.lastError = remoteErr.Message
		s.commandFinished()
		return Output{Type: OutputError, ErrorCode: remoteErr.Code, ErrorMessage: remoteErr.Message}, nil

	default:
		protoErr := newProtocolError(fmt.Sprintf("unrecognised message type %d", msg.Type))
		s.fatal(protoErr)
		return Output{}, protoErr
	}
}

func (s *Session) commandFinished() {
	s.outstanding--
	if s.outstanding == 0 {
		s.state = stateReady
	}
	s.metrics.SetOutstanding(s.outstanding)
}

// Noop sends a NOOP and verifies the server replies in kind (§4.5). This
// spec deliberately keeps the stricter original behaviour: a NOOP reply
// must carry protocol version 3, not merely >= 2.
func (s *Session) Noop() error {
	if s.state != stateReady && s.state != stateAwaitingResponses {
		return &NotOpenedError{Op: "noop"}
	}

	msg := wire.EncodeMessage(wire.MsgNoop, nil)
	if err := s.sendWrapped(msg); err != nil {
		s.fatal(err)
		return err
	}

	body, err := s.recvWrapped()
	if err != nil {
		s.fatal(err)
		return err
	}

	reply, err := wire.DecodeMessage(body)
	if err != nil || reply.Version != 3 || reply.Type != wire.MsgNoop {
		fail := newError("server does not support noop")
		s.fatal(fail)
		return fail
	}

	return nil
}

// Close releases the Session. It is best-effort (a failed QUIT never
// prevents the socket close or context release) and idempotent (§4.5,
// §9 design note).
func (s *Session) Close() error {
	if s.state == stateClosed {
		return nil
	}

	if s.state == stateReady || s.state == stateAwaitingResponses {
		msg := wire.EncodeMessage(wire.MsgQuit, nil)
		_ = s.sendWrapped(msg)
	}

	s.closeTransportOnly()
	s.state = stateClosed
	logger.DebugCtx(s.logCtx, "session closed")
	return nil
}

// dialTCP opens the outbound TCP connection per opts (§9 design note:
// ConnectOptions replaces the original's open-ended connect kwargs).
func dialTCP(host string, port int, opts ConnectOptions) (net.Conn, error) {
	dialer := net.Dialer{Timeout: opts.Timeout}
	if opts.SourceIP != "" {
		dialer.LocalAddr = &net.TCPAddr{IP: net.ParseIP(opts.SourceIP)}
	}
	return dialer.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
}

func (s *Session) closeTransportOnly() {
	if s.ctx != nil {
		_ = s.ctx.Delete()
		s.ctx = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

func (s *Session) fatal(err error) {
	logger.ErrorCtx(s.logCtx, "session failed", logger.Err(err))
	s.closeTransportOnly()
	s.state = stateClosed
}

func (s *Session) sendWrapped(msg []byte) error {
	wrapped, err := s.ctx.Wrap(msg, true)
	if err != nil {
		return wrapError("gssapi wrap failed", err)
	}
	pkt, err := wire.EncodePacket(wire.Packet{Flags: wire.FlagData | wire.FlagProtocol, Payload: wrapped})
	if err != nil {
		return wrapError("encode packet failed", err)
	}
	if _, err := s.conn.Write(pkt); err != nil {
		return wrapError("send failed", err)
	}
	s.metrics.RecordBytesSent(len(pkt))
	return nil
}

func (s *Session) recvWrapped() ([]byte, error) {
	pkt, err := wire.ReadPacket(s.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, newError("server closed connection")
		}
		return nil, wrapError("read failed", err)
	}
	if pkt.Flags&wire.FlagProtocol == 0 {
		return nil, newError("unsupported v1 server")
	}
	s.metrics.RecordBytesReceived(len(pkt.Payload))

	body, _, err := s.ctx.Unwrap(pkt.Payload)
	if err != nil {
		return nil, wrapError("gssapi unwrap failed", err)
	}
	return body, nil
}
