// Package gssapiprovider adapts github.com/golang-auth/go-gssapi/v3's
// initiator context to the internal/gssnegotiate.SecContext and
// gssnegotiate.Provider seams, so the handshake and Session code stay
// independent of the concrete GSSAPI binding.
package gssapiprovider

import (
	"fmt"

	gssapi "github.com/golang-auth/go-gssapi/v3"

	"github.com/remctl/remctl-go/internal/gssnegotiate"
)

// KerberosProvider creates initiator contexts using the Kerberos V
// mechanism. It is the Provider the CLI and Session wire together by
// default.
type KerberosProvider struct{}

// NewKerberosProvider returns a Provider bound to the Kerberos V mechanism.
func NewKerberosProvider() *KerberosProvider {
	return &KerberosProvider{}
}

// Initiate builds a GSSAPI initiator context for target using flags and,
// optionally, an explicit initiator credential (e.g. one loaded by
// pkg/krb5cred). A nil cred asks the library to use the process's default
// credential (typically a ticket cache).
func (p *KerberosProvider) Initiate(target gssnegotiate.TargetName, flags gssnegotiate.ContextFlag, cred gssnegotiate.Credential) (gssnegotiate.SecContext, error) {
	nameType := gssapi.NameTypeHostBased
	nameBytes := target.String()
	if target.IsRaw() {
		nameType = gssapi.NameTypeExportName
		nameBytes = string(target.RawBytes())
	}

	name, err := gssapi.ImportName(nameBytes, nameType)
	if err != nil {
		return nil, fmt.Errorf("gssapiprovider: import target name %q: %w", target.String(), err)
	}

	opts := []gssapi.InitiatorOption{gssapi.WithInitiatorFlags(toLibraryFlags(flags))}
	if cred != nil {
		libCred, ok := cred.(gssapi.Credential)
		if !ok {
			return nil, fmt.Errorf("gssapiprovider: credential %T does not implement gssapi.Credential", cred)
		}
		opts = append(opts, gssapi.WithInitiatorCredential(libCred))
	}

	ctx, err := gssapi.NewInitiator(name, gssapi.MechKerberosV5, opts...)
	if err != nil {
		return nil, fmt.Errorf("gssapiprovider: new initiator context: %w", err)
	}

	return &secContext{ctx: ctx}, nil
}

func toLibraryFlags(flags gssnegotiate.ContextFlag) gssapi.ContextFlag {
	var out gssapi.ContextFlag
	if flags&gssnegotiate.ContextFlagMutual != 0 {
		out |= gssapi.ContextFlagMutual
	}
	if flags&gssnegotiate.ContextFlagConf != 0 {
		out |= gssapi.ContextFlagConf
	}
	if flags&gssnegotiate.ContextFlagInteg != 0 {
		out |= gssapi.ContextFlagInteg
	}
	if flags&gssnegotiate.ContextFlagReplay != 0 {
		out |= gssapi.ContextFlagReplay
	}
	if flags&gssnegotiate.ContextFlagSequence != 0 {
		out |= gssapi.ContextFlagSequence
	}
	return out
}

func fromLibraryFlags(flags gssapi.ContextFlag) gssnegotiate.ContextFlag {
	var out gssnegotiate.ContextFlag
	if flags&gssapi.ContextFlagMutual != 0 {
		out |= gssnegotiate.ContextFlagMutual
	}
	if flags&gssapi.ContextFlagConf != 0 {
		out |= gssnegotiate.ContextFlagConf
	}
	if flags&gssapi.ContextFlagInteg != 0 {
		out |= gssnegotiate.ContextFlagInteg
	}
	if flags&gssapi.ContextFlagReplay != 0 {
		out |= gssnegotiate.ContextFlagReplay
	}
	if flags&gssapi.ContextFlagSequence != 0 {
		out |= gssnegotiate.ContextFlagSequence
	}
	return out
}

// secContext adapts gssapi.SecContext (RFC 2743 §2.2's richer interface) to
// the narrower gssnegotiate.SecContext the handshake needs.
type secContext struct {
	ctx   gssapi.SecContext
	flags gssnegotiate.ContextFlag
}

func (s *secContext) Continue(tokenIn []byte) ([]byte, error) {
	tokenOut, err := s.ctx.Continue(tokenIn)
	if err != nil {
		return nil, fmt.Errorf("gssapiprovider: continue: %w", err)
	}
	if !s.ctx.ContinueNeeded() {
		info, err := s.ctx.Inquire()
		if err != nil {
			return nil, fmt.Errorf("gssapiprovider: inquire established context: %w", err)
		}
		s.flags = fromLibraryFlags(info.Flags)
	}
	return tokenOut, nil
}

func (s *secContext) IsEstablished() bool {
	return !s.ctx.ContinueNeeded()
}

func (s *secContext) ContextFlags() gssnegotiate.ContextFlag {
	return s.flags
}

func (s *secContext) Wrap(payload []byte, confidentiality bool) ([]byte, error) {
	out, _, err := s.ctx.Wrap(payload, confidentiality, 0)
	if err != nil {
		return nil, fmt.Errorf("gssapiprovider: wrap: %w", err)
	}
	return out, nil
}

func (s *secContext) Unwrap(payload []byte) ([]byte, bool, error) {
	out, sealed, _, err := s.ctx.Unwrap(payload)
	if err != nil {
		return nil, false, fmt.Errorf("gssapiprovider: unwrap: %w", err)
	}
	return out, sealed, nil
}

func (s *secContext) Delete() error {
	_, err := s.ctx.Delete()
	if err != nil {
		return fmt.Errorf("gssapiprovider: delete: %w", err)
	}
	return nil
}
