// Package link owns the outgoing side of a half-duplex peer link.
//
// Ownership boundary:
// - the idle/sending transmitter resource
// - link pacing and timeout defaults
// - reconnect backoff
package link
