package chat

import (
	"strings"
	"time"

	twitchirc "github.com/gempir/go-twitch-irc/v4"
)

// ircTransport adapts the go-twitch-irc client to the Transport interface.
type ircTransport struct {
	client    *twitchirc.Client
	channel   string
	onConnect func()
	onMessage func(Message)
}

// NewIRCTransport creates a Twitch IRC transport for a single channel.
// oauthToken is the raw access token; the "oauth:" scheme is added here.
func NewIRCTransport(botName, oauthToken, channel string) Transport {
	channel = normalizeChannel(channel)
	client := twitchirc.NewClient(botName, "oauth:"+strings.TrimPrefix(oauthToken, "oauth:"))

	t := &ircTransport{
		client:  client,
		channel: channel,
	}

	client.OnConnect(func() {
		client.Join(channel)
		if t.onConnect != nil {
			t.onConnect()
		}
	})

	client.OnPrivateMessage(func(m twitchirc.PrivateMessage) {
		if t.onMessage != nil {
			t.onMessage(toMessage(m))
		}
	})

	return t
}

func (t *ircTransport) Connect() error {
	return t.client.Connect()
}

func (t *ircTransport) Disconnect() error {
	return t.client.Disconnect()
}

func (t *ircTransport) Say(channel, text string) {
	t.client.Say(normalizeChannel(channel), text)
}

func (t *ircTransport) OnConnect(fn func()) {
	t.onConnect = fn
}

func (t *ircTransport) OnMessage(fn func(Message)) {
	t.onMessage = fn
}

func toMessage(m twitchirc.PrivateMessage) Message {
	badges := make(map[string]int, len(m.User.Badges))
	for k, v := range m.User.Badges {
		badges[k] = v
	}

	sentAt := m.Time
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}

	return Message{
		Channel: normalizeChannel(m.Channel),
		User: User{
			ID:            m.User.ID,
			Login:         m.User.Name,
			DisplayName:   displayNameOr(m.User.DisplayName, m.User.Name),
			IsMod:         m.User.Badges["moderator"] > 0 || m.User.Badges["broadcaster"] > 0,
			IsBroadcaster: m.User.Badges["broadcaster"] > 0,
			IsSubscriber:  m.User.Badges["subscriber"] > 0,
			Badges:        badges,
		},
		Text:      m.Message,
		ID:        m.ID,
		Timestamp: sentAt,
	}
}

func displayNameOr(displayName, fallback string) string {
	if displayName != "" {
		return displayName
	}
	return fallback
}

func normalizeChannel(ch string) string {
	return strings.TrimPrefix(strings.TrimSpace(ch), "#")
}
