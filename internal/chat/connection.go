package chat

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Alextibtab/twitch-streaming-tool/internal/metrics"
)

// State is the chat connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	maxReconnectAttempts = 5
	baseReconnectDelay   = 1000 * time.Millisecond
)

// Transport is the chat wire protocol the connection drives. The IRC
// implementation lives in transport.go; tests substitute a fake.
type Transport interface {
	// Connect blocks until the session ends and returns the terminal error.
	Connect() error
	Disconnect() error
	Say(channel, text string)
	OnConnect(fn func())
	OnMessage(fn func(Message))
}

// Connection is the chat-transport lifecycle state machine. It owns the
// reconnect schedule: bounded exponential backoff with a cancellable retry
// timer, so a manual disconnect or a fresh Connect never races a pending
// retry. Command registrations survive reconnects because the registry is
// bound once and consulted on every inbound message.
type Connection struct {
	transport Transport
	registry  *Registry
	channel   string
	clock     clockwork.Clock

	mu         sync.Mutex
	state      State
	attempts   int
	retryTimer clockwork.Timer
	generation int
}

// NewConnection wires a connection to its transport and command registry.
func NewConnection(transport Transport, registry *Registry, channel string, clock clockwork.Clock) *Connection {
	c := &Connection{
		transport: transport,
		registry:  registry,
		channel:   channel,
		clock:     clock,
		state:     StateDisconnected,
	}
	transport.OnConnect(c.handleConnected)
	transport.OnMessage(c.handleMessage)
	return c
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the current reconnect attempt count.
func (c *Connection) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Connect starts a connection attempt. A pending reconnect timer is
// invalidated first, so there is never more than one attempt in flight.
// Leaving the Failed state requires exactly this call.
func (c *Connection) Connect() {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return
	}

	c.cancelRetryLocked()
	c.generation++
	gen := c.generation
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	go c.runConnect(gen)
}

// Disconnect manually closes the connection. Any pending reconnect is
// cancelled; the state becomes Disconnected and no retry is attempted.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	c.cancelRetryLocked()
	c.generation++
	prev := c.state
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	if prev == StateConnected || prev == StateConnecting {
		if err := c.transport.Disconnect(); err != nil {
			slog.Warn("Transport disconnect error", "error", err)
		}
	}
	slog.Info("Disconnected from chat")
}

// Say sends a message to the connected channel. Dropped when not connected.
func (c *Connection) Say(text string) {
	c.mu.Lock()
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected {
		slog.Error("Cannot send message: not connected to chat")
		return
	}
	c.transport.Say(c.channel, text)
}

func (c *Connection) runConnect(gen int) {
	err := c.transport.Connect()

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		// A manual disconnect or fresh connect superseded this session.
		return
	}

	switch c.state {
	case StateConnecting:
		// Connection attempt failed outright.
		slog.Warn("Failed to connect to chat", "error", err, "attempts", c.attempts)
		c.scheduleReconnectLocked(gen)
	case StateConnected:
		// Session dropped after a successful connect.
		slog.Warn("Disconnected from chat unexpectedly", "error", err)
		c.scheduleReconnectLocked(gen)
	}
}

// handleConnected runs when the transport reports a successful connect.
func (c *Connection) handleConnected() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnecting {
		return
	}
	c.setStateLocked(StateConnected)
	c.attempts = 0
	slog.Info("Connected to chat", "channel", c.channel)
}

// handleMessage dispatches inbound chat text through the command registry
// and sends any reply back to the channel.
func (c *Connection) handleMessage(msg Message) {
	reply := c.registry.Dispatch(msg)
	if reply == "" {
		return
	}
	c.Say(reply)
}

// scheduleReconnectLocked enters Reconnecting and arms the retry timer, or
// transitions to Failed once the attempt budget is exhausted.
func (c *Connection) scheduleReconnectLocked(gen int) {
	if c.attempts >= maxReconnectAttempts {
		c.setStateLocked(StateFailed)
		slog.Error("Maximum reconnect attempts reached", "attempts", c.attempts)
		return
	}

	delay := baseReconnectDelay * (1 << c.attempts)
	c.attempts++
	c.setStateLocked(StateReconnecting)
	slog.Info("Attempting to reconnect", "delay", delay, "attempt", c.attempts, "max_attempts", maxReconnectAttempts)

	c.cancelRetryLocked()
	c.retryTimer = c.clock.AfterFunc(delay, func() { c.retryFire(gen) })
}

// retryFire transitions a pending retry into a fresh connection attempt.
func (c *Connection) retryFire(gen int) {
	c.mu.Lock()
	if gen != c.generation || c.state != StateReconnecting {
		c.mu.Unlock()
		return
	}

	metrics.ChatReconnectsTotal.Inc()
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	go c.runConnect(gen)
}

func (c *Connection) cancelRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

func (c *Connection) setStateLocked(s State) {
	c.state = s
	metrics.ChatConnectionState.Set(float64(s))
}
