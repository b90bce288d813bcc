// Package chat implements the chat-transport lifecycle state machine and
// the command registry that dispatches inbound chat text.
package chat
