package gssnegotiate

// TargetName names the service the initiator is authenticating to (§9
// design note: a typed replacement for the original's "string or opaque
// name object" argument).
type TargetName struct {
	kind targetKind
	name string
	raw  []byte
}

type targetKind int

const (
	targetDefault targetKind = iota
	targetHostBased
	targetRaw
)

// DefaultTargetName builds the conventional "host@hostname" target (§4.4).
func DefaultTargetName(host string) TargetName {
	return TargetName{kind: targetDefault, name: "host@" + host}
}

// HostBased builds a target from a caller-supplied host-based service
// principal string, e.g. "remctl@archive.example.org".
func HostBased(principal string) TargetName {
	return TargetName{kind: targetHostBased, name: principal}
}

// Raw wraps an opaque, already-exported GSSAPI name, for callers that
// obtained a name object directly from a GSSAPI binding.
func Raw(name []byte) TargetName {
	return TargetName{kind: targetRaw, raw: name}
}

// String returns the target name in the form a GSSAPI import_name call
// expects for a host-based service, or the raw name's string form.
func (t TargetName) String() string {
	if t.kind == targetRaw {
		return string(t.raw)
	}
	return t.name
}

// IsRaw reports whether the target carries an opaque exported name rather
// than a host-based service string.
func (t TargetName) IsRaw() bool {
	return t.kind == targetRaw
}

// RawBytes returns the opaque name bytes. Only meaningful when IsRaw is true.
func (t TargetName) RawBytes() []byte {
	return t.raw
}
