package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	apperrors "github.com/Alextibtab/twitch-streaming-tool/internal/errors"
	"github.com/Alextibtab/twitch-streaming-tool/internal/version"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for OBS browser source
	},
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Get(),
	})
}

func (s *Server) handleConnections(c echo.Context) error {
	return c.JSON(http.StatusOK, s.hub.ListConnections())
}

func (s *Server) handleRewards(c echo.Context) error {
	if s.helix == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Twitch API client not configured"})
	}

	rewards, err := s.helix.ListCustomRewards(c.Request().Context(), s.config.BroadcasterID)
	if err != nil {
		slog.Error("Error fetching rewards", "error", err)
		structured := apperrors.AsStructuredError(err)
		return c.JSON(structured.HTTPStatus(), map[string]string{"error": "Failed to fetch rewards"})
	}

	return c.JSON(http.StatusOK, rewards)
}

func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	if err := s.hub.Register(conn); err != nil {
		slog.Warn("Failed to register display client", "error", err)
		return nil
	}

	// Read pump — blocks until the connection closes.
	s.hub.ReadPump(conn)
	s.hub.Unregister(conn)

	return nil
}
