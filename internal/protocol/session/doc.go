// Package session owns the gateway connection lifecycle.
//
// Ownership boundary:
// - connection states and their legal transitions
// - version handshake and negotiation
// - the per-connection Session entity (version, ids, managed accounts)
// - the single lock serializing session state and stream writes
// - dial retry/backoff primitives
package session
