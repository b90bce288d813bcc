package chat

import "time"

// User identifies the sender of a chat message.
type User struct {
	ID            string
	Login         string
	DisplayName   string
	IsMod         bool
	IsBroadcaster bool
	IsSubscriber  bool
	Badges        map[string]int
}

// Message is one inbound chat message. Read-only for command handlers.
type Message struct {
	Channel   string
	User      User
	Text      string
	ID        string
	Timestamp time.Time
}
