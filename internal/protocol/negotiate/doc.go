// Package negotiate applies the setup message family to one connection
// attempt.
//
// Ownership boundary:
// - upstream Responder: request -> Success or Error
// - downstream Initiator: request construction and response handling
//
// Transport framing and the connection itself belong to the caller.
package negotiate
