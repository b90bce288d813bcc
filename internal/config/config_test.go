package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TWITCH_CLIENT_ID", "client-id")
	t.Setenv("TWITCH_CLIENT_SECRET", "client-secret")
	t.Setenv("TWITCH_BROADCASTER_ID", "12345")
	t.Setenv("TWITCH_CHANNEL_NAME", "testchannel")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "!", cfg.BotPrefix)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.EnableChatBot)
	assert.False(t, cfg.EnableEventSub)
}

func TestLoad_MissingRequiredVars(t *testing.T) {
	required := []string{
		"TWITCH_CLIENT_ID",
		"TWITCH_CLIENT_SECRET",
		"TWITCH_BROADCASTER_ID",
		"TWITCH_CHANNEL_NAME",
	}

	for _, missing := range required {
		t.Run(missing, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(missing, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoad_EventSubRequiresSecretAndCallback(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENABLE_EVENTSUB", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EVENTSUB_SECRET")

	t.Setenv("EVENTSUB_SECRET", "long-enough-secret")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEBHOOK_CALLBACK_URL")

	t.Setenv("WEBHOOK_CALLBACK_URL", "https://example.com/webhooks/eventsub")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.EnableEventSub)
}

func TestLoad_EventSubSecretLengthBounds(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENABLE_EVENTSUB", "true")
	t.Setenv("WEBHOOK_CALLBACK_URL", "https://example.com/webhooks/eventsub")

	t.Setenv("EVENTSUB_SECRET", "too-short")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("EVENTSUB_SECRET", "0123456789")
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoad_ChatBotRequiresAccessToken(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENABLE_CHAT_BOT", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TWITCH_ACCESS_TOKEN")

	t.Setenv("TWITCH_ACCESS_TOKEN", "oauth-token")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.EnableChatBot)
}

func TestLoad_RewardMappings(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DIGITAL_RAIN_SHADER", "reward-rain")
	t.Setenv("COLOUR_SHIFT", "reward-shift")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "reward-rain", cfg.Rewards.DigitalRain)
	assert.Equal(t, "reward-shift", cfg.Rewards.ColourShift)
}
