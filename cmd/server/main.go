package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Alextibtab/twitch-streaming-tool/internal/chat"
	"github.com/Alextibtab/twitch-streaming-tool/internal/chess"
	"github.com/Alextibtab/twitch-streaming-tool/internal/config"
	"github.com/Alextibtab/twitch-streaming-tool/internal/effects"
	"github.com/Alextibtab/twitch-streaming-tool/internal/eventsub"
	"github.com/Alextibtab/twitch-streaming-tool/internal/logging"
	"github.com/Alextibtab/twitch-streaming-tool/internal/overlay"
	"github.com/Alextibtab/twitch-streaming-tool/internal/server"
	"github.com/Alextibtab/twitch-streaming-tool/internal/twitch"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupHelix(cfg *config.Config) *twitch.Client {
	helixClient, err := twitch.NewClient(cfg.TwitchClientID, cfg.TwitchClientSecret)
	if err != nil {
		slog.Error("Failed to create Twitch API client", "error", err)
		return nil
	}
	return helixClient
}

func setupChatBot(cfg *config.Config, registry *chat.Registry, clock clockwork.Clock) *chat.Connection {
	if !cfg.EnableChatBot {
		slog.Info("Chat bot is disabled, skipping initialization")
		return nil
	}

	transport := chat.NewIRCTransport(cfg.BotName, cfg.AccessToken, cfg.ChannelName)
	conn := chat.NewConnection(transport, registry, cfg.ChannelName, clock)
	conn.Connect()
	return conn
}

func setupEventSub(cfg *config.Config, helixClient *twitch.Client, pipeline *effects.Pipeline) *eventsub.WebhookHandler {
	if !cfg.EnableEventSub {
		slog.Info("EventSub is disabled, skipping initialization")
		return nil
	}

	handler := eventsub.NewWebhookHandler(cfg.EventSubSecret, pipeline)

	if helixClient == nil {
		slog.Error("EventSub enabled but Twitch API client unavailable, subscriptions will not be created")
		return handler
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	subscriptionID, err := helixClient.SubscribeRedemptions(ctx, cfg.BroadcasterID, cfg.WebhookCallbackURL, cfg.EventSubSecret)
	if err != nil {
		slog.Error("Failed to subscribe to channel point redemptions", "error", err)
		return handler
	}

	slog.Info("Subscribed to channel point redemptions", "subscription_id", subscriptionID)
	return handler
}

func runGracefulShutdown(srv *server.Server, chatConn *chat.Connection, hub *overlay.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("Shutdown signal received, cleaning up...", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		if chatConn != nil {
			chatConn.Disconnect()
		}
		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	// Core services, wired explicitly
	hub := overlay.NewHub(clock)
	pipeline := effects.NewPipeline(hub, cfg.Rewards, clock)
	cache := chess.NewCache(clock)

	providers := []chess.Provider{
		chess.WithBreaker(chess.NewLichessProvider("")),
		chess.WithBreaker(chess.NewChessComProvider("")),
	}
	chessCmd := chess.NewCommand(providers, cache, pipeline)

	registry := chat.NewRegistry(cfg.BotPrefix)
	registry.Register("chess", chessCmd.Handle)

	helixClient := setupHelix(cfg)
	chatConn := setupChatBot(cfg, registry, clock)
	webhookHandler := setupEventSub(cfg, helixClient, pipeline)

	var srv *server.Server
	if webhookHandler != nil {
		srv = server.NewServer(cfg, hub, helixClient, webhookHandler)
	} else {
		// Pass nil explicitly to avoid a typed-nil interface
		srv = server.NewServer(cfg, hub, helixClient, nil)
	}

	done := runGracefulShutdown(srv, chatConn, hub)

	slog.Info("Server starting", "host", cfg.Host, "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
