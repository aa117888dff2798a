package remctl

import (
	"github.com/remctl/remctl-go/internal/gssnegotiate"
)

// DefaultPort is the standard remctl server port.
const DefaultPort = 4373

// Simple opens a Session, issues one command, and drains its output into a
// Result (§4.6). The Session is always closed before Simple returns.
func Simple(provider gssnegotiate.Provider, host string, port int, principal string, command []string) (Result, error) {
	if port == 0 {
		port = DefaultPort
	}

	target := DefaultTargetName(host)
	if principal != "" {
		target = HostBasedTargetName(principal)
	}

	session := NewSession(provider)
	defer session.Close()

	if err := session.Open(host, port, target); err != nil {
		return Result{}, toProtocolError(err)
	}

	if err := session.Command(command, true); err != nil {
		return Result{}, toProtocolError(err)
	}

	var result Result
	for {
		out, err := session.Output()
		if err != nil {
			return Result{}, toProtocolError(err)
		}

		switch out.Type {
		case OutputDone:
			return result, nil
		case OutputStatus:
			result.ExitCode = out.ExitCode
			return result, nil
		case OutputError:
			return Result{}, serverProtocolError(out.ErrorCode, string(out.ErrorMessage))
		case OutputChunk:
			switch out.Stream {
			case StreamStdout:
				result.Stdout = append(result.Stdout, out.Chunk...)
			case StreamStderr:
				result.Stderr = append(result.Stderr, out.Chunk...)
			default:
				return Result{}, newProtocolError("unknown output stream")
			}
		}
	}
}

// toProtocolError wraps any lower-level Error in a ProtocolError so the
// façade exposes a single catch category (§4.6, §7).
func toProtocolError(err error) error {
	if err == nil {
		return nil
	}
	if protoErr, ok := err.(*ProtocolError); ok {
		return protoErr
	}
	return wrapProtocolError(err)
}
