// Package protocol owns the gateway wire contract and its encoding primitives.
//
// Ownership boundary:
// - typed field values and their text encoding
// - NUL-delimited payload assembly
// - length-prefixed request frames
// - the reference field decoder used by the reader and tests
// - the shared error taxonomy for the outbound path
package protocol
