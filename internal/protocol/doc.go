// Package protocol owns the battleboats wire contract.
//
// Ownership boundary:
// - message and event types exchanged with the turn state machine
// - payload rendering and parsing against schema templates
// - the per-link byte decoder built on frame.Scanner
package protocol
