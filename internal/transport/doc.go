// Package transport opens the byte stream a peer plays over.
//
// Ownership boundary:
// - serial, tcp, websocket and stdio links exposed as io.ReadWriteCloser
// - listen/accept and dial-with-retry setup
//
// Framing and pacing live in protocol and link.
package transport
