// Package scripting models CCS bus subsystems as injectable command
// endpoints: a network-backed implementation that rides the interpreter
// bridge, a canned in-memory proxy for offline runs and tests, and a
// logging decorator layered over either.
package scripting
