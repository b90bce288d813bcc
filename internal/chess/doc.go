// Package chess implements the rating lookup command, its TTL cache, and
// the Lichess and Chess.com provider clients.
package chess
