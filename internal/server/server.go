package server

import (
	"context"
	"net"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Alextibtab/twitch-streaming-tool/internal/config"
	"github.com/Alextibtab/twitch-streaming-tool/internal/overlay"
	"github.com/Alextibtab/twitch-streaming-tool/internal/twitch"
)

// webhookHandler handles EventSub webhook requests (nil if EventSub is disabled)
type webhookHandler interface {
	HandleEventSub(c echo.Context) error
}

type Server struct {
	echo    *echo.Echo
	config  *config.Config
	hub     *overlay.Hub
	helix   *twitch.Client
	webhook webhookHandler
}

func NewServer(cfg *config.Config, hub *overlay.Hub, helixClient *twitch.Client, webhook webhookHandler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:    e,
		config:  cfg,
		hub:     hub,
		helix:   helixClient,
		webhook: webhook,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(net.JoinHostPort(s.config.Host, s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
