// Package interp owns the persistent socket bridge to the remote CCS
// interpreter.
//
// Ownership boundary:
// - connection lifecycle and greeting handshake
// - submission framing and completion markers
// - the dispatcher read loop and execution futures
package interp
