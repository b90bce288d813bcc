package overlay

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/Alextibtab/twitch-streaming-tool/internal/metrics"
)

const (
	maxClients     = 100
	commandTimeout = 5 * time.Second
)

// ConnectionInfo is a snapshot of one open display-client connection.
type ConnectionInfo struct {
	ID          string    `json:"id"`
	ConnectedAt time.Time `json:"connectedAt"`
}

type client struct {
	id          uuid.UUID
	writer      *clientWriter
	connectedAt time.Time
}

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseHubCmd
	connection *websocket.Conn
}

type broadcastCmd struct {
	baseHubCmd
	messageType string
	data        []byte
}

type listConnectionsCmd struct {
	baseHubCmd
	replyChannel chan []ConnectionInfo
}

type clientCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub tracks all connected display clients and fans messages out to every
// connection that is open at the instant a broadcast is handled. All state
// is confined to the run goroutine; callers talk to it over the command
// channel, so the open set can never be mutated mid-fan-out.
type Hub struct {
	cmdCh   chan hubCmd
	clock   clockwork.Clock
	clients map[*websocket.Conn]*client
	done    chan struct{}
}

// NewHub creates a hub and starts its actor goroutine.
func NewHub(clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clock:   clock,
		clients: make(map[*websocket.Conn]*client),
		done:    make(chan struct{}),
	}
	go h.run()
	return h
}

// Register adds a display client and sends it the connection acknowledgment.
// Returns an error if the client cap is reached.
func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- registerCmd{connection: conn, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a display client and stops its writer.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- unregisterCmd{connection: conn}
}

// Broadcast serializes the message once and delivers it best-effort to every
// open connection. Individual delivery failures are logged and skipped;
// there is no retry and no acknowledgment.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal broadcast message", "type", msg.Type, "error", err)
		return
	}
	h.cmdCh <- broadcastCmd{messageType: msg.Type, data: data}
}

// ListConnections returns a snapshot of the currently open connections.
func (h *Hub) ListConnections() []ConnectionInfo {
	replyCh := make(chan []ConnectionInfo, 1)
	h.cmdCh <- listConnectionsCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case infos := <-replyCh:
		return infos
	case <-timer.Chan():
		slog.Warn("ListConnections timed out", "timeout", commandTimeout)
		return nil
	}
}

// ClientCount returns the number of open connections, or -1 on timeout.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- clientCountCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the hub, closing all client connections.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}
	<-h.done
}

// ReadPump consumes inbound frames from a display client until the connection
// closes. Malformed payloads are logged and discarded; they never close the
// connection from the server side.
func (h *Hub) ReadPump(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			slog.Debug("Discarding malformed client payload", "error", err)
			continue
		}
		slog.Debug("Received message from client", "payload", payload)
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c.connection)
		case broadcastCmd:
			h.handleBroadcast(c)
		case listConnectionsCmd:
			c.replyChannel <- h.snapshot()
		case clientCountCmd:
			c.replyChannel <- len(h.clients)
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if len(h.clients) >= maxClients {
		slog.Warn("Rejecting display client: max clients reached", "max_clients", maxClients)
		c.connection.Close()
		c.errorChannel <- fmt.Errorf("max clients (%d) reached", maxClients)
		return
	}

	cl := &client{
		id:          uuid.New(),
		writer:      newClientWriter(c.connection, h.clock),
		connectedAt: h.clock.Now(),
	}
	h.clients[c.connection] = cl

	ack := Message{
		Type: "connection",
		Data: map[string]any{
			"connected": true,
			"timestamp": cl.connectedAt.UTC().Format(time.RFC3339),
		},
	}
	if data, err := json.Marshal(ack); err == nil {
		select {
		case cl.writer.sendChannel <- data:
		default:
		}
	}

	metrics.OverlayConnectedClients.Set(float64(len(h.clients)))
	slog.Info("Display client connected", "connection_id", cl.id.String(), "total_clients", len(h.clients))
	c.errorChannel <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cl, exists := h.clients[conn]
	if !exists {
		return
	}

	cl.writer.stop()
	delete(h.clients, conn)

	metrics.OverlayConnectedClients.Set(float64(len(h.clients)))
	slog.Info("Display client disconnected", "connection_id", cl.id.String(), "remaining_clients", len(h.clients))
}

func (h *Hub) handleBroadcast(c broadcastCmd) {
	metrics.OverlayBroadcastsTotal.WithLabelValues(c.messageType).Inc()

	for _, cl := range h.clients {
		select {
		case cl.writer.sendChannel <- c.data:
		default:
			// Slow client: drop this message, keep the connection.
			metrics.OverlayDroppedSendsTotal.Inc()
			slog.Warn("Dropping broadcast for slow client", "connection_id", cl.id.String(), "type", c.messageType)
		}
	}
}

func (h *Hub) snapshot() []ConnectionInfo {
	infos := make([]ConnectionInfo, 0, len(h.clients))
	for _, cl := range h.clients {
		infos = append(infos, ConnectionInfo{
			ID:          cl.id.String(),
			ConnectedAt: cl.connectedAt,
		})
	}
	return infos
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "clients", len(h.clients))
	for conn, cl := range h.clients {
		cl.writer.stopGraceful("Server shutting down")
		delete(h.clients, conn)
	}
	metrics.OverlayConnectedClients.Set(0)
}
