package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so downstream log
// aggregation can query on a fixed vocabulary instead of free-form strings.
const (
	// ========================================================================
	// Connection & Session
	// ========================================================================
	KeyHost     = "host"        // Remote server hostname or address
	KeyPort     = "port"        // Remote server TCP port
	KeySourceIP = "source_ip"   // Local source address bound for the connection
	KeyPrincipal = "principal"  // GSSAPI target service principal
	KeyState    = "state"       // Session state machine state
	KeyOutstand = "outstanding" // Count of commands awaiting a terminal response

	// ========================================================================
	// Protocol Framing
	// ========================================================================
	KeyFlags   = "flags"    // Packet flag byte
	KeyMsgType = "msg_type" // Inner message type
	KeyVersion = "version"  // Inner message protocol version
	KeyBytes   = "bytes"    // Byte count of a frame or message payload

	// ========================================================================
	// Command Dispatch
	// ========================================================================
	KeyArgc      = "argc"      // Number of command arguments
	KeySegments  = "segments"  // Number of COMMAND segments emitted
	KeyKeepalive = "keepalive" // Keepalive flag requested for a command

	// ========================================================================
	// Response Handling
	// ========================================================================
	KeyStream   = "stream"     // Output stream: stdout or stderr
	KeyExitCode = "exit_code"  // Command terminal exit status
	KeyErrCode  = "error_code" // Server-reported error code

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)

// Err returns a slog.Attr for an error, or a zero Attr if err is nil so it
// can be appended unconditionally without an extra nil check at call sites.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// DurationMs returns a slog.Attr for a duration expressed in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Stream returns a slog.Attr for an OUTPUT message's stream identifier.
func Stream(stream uint8) slog.Attr {
	return slog.Int(KeyStream, int(stream))
}

// ExitCode returns a slog.Attr for a command's terminal exit status.
func ExitCode(code uint8) slog.Attr {
	return slog.Int(KeyExitCode, int(code))
}
