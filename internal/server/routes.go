package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API routes
	s.echo.GET("/api/rewards", s.handleRewards)
	s.echo.GET("/api/connections", s.handleConnections)

	// Webhook route (EventSub notifications from Twitch)
	if s.webhook != nil {
		s.echo.POST("/webhooks/eventsub", s.webhook.HandleEventSub)
	}

	// Display clients (overlay pages and their WebSocket feed)
	s.echo.GET("/ws", s.handleWebSocket)
	s.echo.File("/overlay/chess", "frontend/chess-overlay.html")
	s.echo.Static("/frontend", "frontend")
	s.echo.File("/", "frontend/index.html")
}
