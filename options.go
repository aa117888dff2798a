package remctl

import (
	"time"

	"github.com/remctl/remctl-go/internal/gssnegotiate"
)

// ConnectOptions configures Open's TCP connect step (§9 design note: a
// typed replacement for the original's open-ended keyword arguments).
type ConnectOptions struct {
	// Timeout bounds the TCP connect. Zero means no timeout.
	Timeout time.Duration

	// SourceIP binds the outbound connection to a specific local address,
	// if non-empty.
	SourceIP string
}

// TargetName names the GSSAPI target service (§9 design note).
type TargetName = gssnegotiate.TargetName

// DefaultTargetName builds the conventional "host@hostname" target.
func DefaultTargetName(host string) TargetName {
	return gssnegotiate.DefaultTargetName(host)
}

// HostBasedTargetName builds a target from a caller-supplied host-based
// service principal string.
func HostBasedTargetName(principal string) TargetName {
	return gssnegotiate.HostBased(principal)
}

// RawTargetName wraps an opaque, already-exported GSSAPI name.
func RawTargetName(name []byte) TargetName {
	return gssnegotiate.Raw(name)
}

// CredentialUsage describes which GSSAPI roles a Credential may be used for.
type CredentialUsage int

const (
	CredentialUsageInitiateOnly CredentialUsage = iota
	CredentialUsageAcceptOnly
	CredentialUsageBoth
)

// Credential wraps an initiator credential (such as one loaded from a
// keytab by pkg/krb5cred) along with the usage it was acquired for.
// set_credential rejects one that cannot initiate (§4.5, §7).
type Credential struct {
	Usage      CredentialUsage
	Underlying gssnegotiate.Credential
}

func (c Credential) canInitiate() bool {
	return c.Usage == CredentialUsageInitiateOnly || c.Usage == CredentialUsageBoth
}
