// Package remctl implements a client for the remctl remote command
// execution protocol.
//
// # Architecture Overview
//
//   - Frame Codec (internal/wire): the outer flags|length|payload envelope
//   - Message Codec (internal/wire): the inner version|type|body structure
//   - Command Segmenter (internal/segment): splits oversized argument lists
//     into chained COMMAND segments
//   - Security Context Driver (internal/gssnegotiate): drives a GSSAPI
//     initiator context to establishment
//   - Session (session.go): the client state machine that ties the above
//     together over one TCP connection
//
// # Protocol Support
//
// remctl protocol versions 2 and 3: version 2 for command, output, status,
// error, and quit messages; version 3 for noop.
//
// # Concurrency
//
// A Session is single-threaded and synchronous: every call either completes
// or fails before returning, and a Session must not be used concurrently
// from more than one goroutine. Callers needing parallelism open
// independent Sessions.
//
// # Simple Usage
//
// Most callers only need the one-shot façade:
//
//	result, err := remctl.Simple(provider, "archive.example.org", 0, "", []string{"status"})
//
// Callers that need to issue more than one command per connection, or that
// need fine-grained control over credentials, source address, or timeout,
// use Session directly.
package remctl
