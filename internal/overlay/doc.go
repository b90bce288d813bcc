// Package overlay implements the display-client broadcast hub using the actor pattern.
//
// The Hub fans each message out to every open WebSocket connection with
// at-most-once, best-effort semantics. Uses a single goroutine + command
// channel (no mutexes). Per-connection write goroutines keep slow clients
// from blocking the fan-out.
package overlay
