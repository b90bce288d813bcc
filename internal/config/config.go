package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Rewards maps the configured channel point reward IDs to their effects.
type Rewards struct {
	DigitalRain string
	ColourShift string
}

type Config struct {
	AppEnv string
	Port   string
	Host   string

	TwitchClientID     string
	TwitchClientSecret string
	BroadcasterID      string
	ChannelName        string
	AccessToken        string

	EventSubSecret     string
	WebhookCallbackURL string

	BotPrefix string
	BotName   string

	EnableChatBot  bool
	EnableEventSub bool

	Rewards Rewards

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "4000"),
		Host:   getEnv("HOST", "localhost"),

		TwitchClientID:     getEnv("TWITCH_CLIENT_ID", ""),
		TwitchClientSecret: getEnv("TWITCH_CLIENT_SECRET", ""),
		BroadcasterID:      getEnv("TWITCH_BROADCASTER_ID", ""),
		ChannelName:        getEnv("TWITCH_CHANNEL_NAME", ""),
		AccessToken:        getEnv("TWITCH_ACCESS_TOKEN", ""),

		EventSubSecret:     getEnv("EVENTSUB_SECRET", ""),
		WebhookCallbackURL: getEnv("WEBHOOK_CALLBACK_URL", ""),

		BotPrefix: getEnv("BOT_PREFIX", "!"),
		BotName:   getEnv("BOT_NAME", ""),

		EnableChatBot:  getEnv("ENABLE_CHAT_BOT", "") == "true",
		EnableEventSub: getEnv("ENABLE_EVENTSUB", "") == "true",

		Rewards: Rewards{
			DigitalRain: getEnv("DIGITAL_RAIN_SHADER", ""),
			ColourShift: getEnv("COLOUR_SHIFT", ""),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if cfg.TwitchClientID == "" {
		return nil, fmt.Errorf("TWITCH_CLIENT_ID is required")
	}
	if cfg.TwitchClientSecret == "" {
		return nil, fmt.Errorf("TWITCH_CLIENT_SECRET is required")
	}
	if cfg.BroadcasterID == "" {
		return nil, fmt.Errorf("TWITCH_BROADCASTER_ID is required")
	}
	if cfg.ChannelName == "" {
		return nil, fmt.Errorf("TWITCH_CHANNEL_NAME is required")
	}

	// EventSub config: secret and callback must be set together
	if cfg.EnableEventSub {
		if cfg.EventSubSecret == "" {
			return nil, fmt.Errorf("EVENTSUB_SECRET is required when ENABLE_EVENTSUB is set")
		}
		if len(cfg.EventSubSecret) < 10 || len(cfg.EventSubSecret) > 100 {
			return nil, fmt.Errorf("EVENTSUB_SECRET must be between 10 and 100 characters")
		}
		if cfg.WebhookCallbackURL == "" {
			return nil, fmt.Errorf("WEBHOOK_CALLBACK_URL is required when ENABLE_EVENTSUB is set")
		}
	}

	if cfg.EnableChatBot && cfg.AccessToken == "" {
		return nil, fmt.Errorf("TWITCH_ACCESS_TOKEN is required when ENABLE_CHAT_BOT is set")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
