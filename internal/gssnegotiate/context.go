// Package gssnegotiate drives a GSSAPI initiator context to establishment
// over the remctl handshake packets (§4.4), independent of any particular
// GSSAPI implementation. Callers supply a SecContext obtained from a
// Provider such as one built on github.com/golang-auth/go-gssapi/v3.
package gssnegotiate

// ContextFlag mirrors the GSSAPI context flag bits relevant to remctl. The
// shape follows github.com/golang-auth/go-gssapi/v3's ContextFlag type.
type ContextFlag uint32

const (
	ContextFlagMutual ContextFlag = 1 << iota
	ContextFlagConf
	ContextFlagInteg
	ContextFlagReplay
	ContextFlagSequence
)

// RequiredFlags are the flags remctl requires of every negotiated context
// (§4.4): mutual authentication, confidentiality, integrity, replay
// detection, and sequencing.
const RequiredFlags = ContextFlagMutual | ContextFlagConf | ContextFlagInteg | ContextFlagReplay | ContextFlagSequence

// SecContext is the subset of a GSSAPI initiator context the handshake and
// the established Session need: token exchange during negotiation, and
// wrap/unwrap once established.
type SecContext interface {
	// Continue advances the context with a token received from the peer
	// (nil on the very first call) and returns the next token to send, if
	// any.
	Continue(tokenIn []byte) (tokenOut []byte, err error)

	// IsEstablished reports whether the context is ready for wrap/unwrap.
	IsEstablished() bool

	// ContextFlags returns the flags actually negotiated. Only meaningful
	// once IsEstablished is true.
	ContextFlags() ContextFlag

	// Wrap seals or signs payload for transmission to the peer.
	Wrap(payload []byte, confidentiality bool) ([]byte, error)

	// Unwrap reverses Wrap, reporting whether the payload was sealed
	// (encrypted) as opposed to merely signed.
	Unwrap(payload []byte) (out []byte, sealed bool, err error)

	// Delete releases any resources held by the context.
	Delete() error
}

// Credential is an opaque initiator credential, such as one loaded from a
// keytab by pkg/krb5cred. A nil Credential asks the Provider to use the
// caller's default credential (e.g. a ticket cache).
type Credential any

// Provider creates initiator security contexts. It is the seam between this
// package's handshake logic and a concrete GSSAPI binding.
type Provider interface {
	Initiate(target TargetName, flags ContextFlag, cred Credential) (SecContext, error)
}
