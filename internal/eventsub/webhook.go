// Package eventsub implements the inbound EventSub webhook endpoint.
package eventsub

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nicklaw5/helix/v2"

	"github.com/Alextibtab/twitch-streaming-tool/internal/effects"
)

const (
	messageTypeHeader = "Twitch-Eventsub-Message-Type"

	messageTypeNotification = "notification"
	messageTypeVerification = "webhook_callback_verification"
	messageTypeRevocation   = "revocation"
)

// RedemptionSink receives verified reward redemption events.
type RedemptionSink interface {
	HandleRedemption(r effects.Redemption)
}

type notification struct {
	Subscription helix.EventSubSubscription `json:"subscription"`
	Challenge    string                     `json:"challenge"`
	Event        json.RawMessage            `json:"event"`
}

// WebhookHandler verifies and dispatches EventSub webhook deliveries.
// Every request is HMAC-checked against the shared secret; signature
// mismatches are rejected.
type WebhookHandler struct {
	secret string
	sink   RedemptionSink
}

func NewWebhookHandler(secret string, sink RedemptionSink) *WebhookHandler {
	return &WebhookHandler{secret: secret, sink: sink}
}

// HandleEventSub is the echo handler for POST /webhooks/eventsub.
func (wh *WebhookHandler) HandleEventSub(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.String(http.StatusBadRequest, "failed to read body")
	}

	if !helix.VerifyEventSubNotification(wh.secret, c.Request().Header, string(body)) {
		slog.Warn("Rejecting EventSub notification with invalid signature")
		return c.String(http.StatusForbidden, "invalid signature")
	}

	var notif notification
	if err := json.Unmarshal(body, &notif); err != nil {
		slog.Error("Failed to parse EventSub notification", "error", err)
		return c.String(http.StatusBadRequest, "invalid payload")
	}

	switch c.Request().Header.Get(messageTypeHeader) {
	case messageTypeVerification:
		slog.Info("EventSub webhook verification", "subscription_type", notif.Subscription.Type)
		return c.String(http.StatusOK, notif.Challenge)

	case messageTypeRevocation:
		slog.Warn("EventSub subscription revoked", "type", notif.Subscription.Type, "status", notif.Subscription.Status)
		return c.NoContent(http.StatusNoContent)

	case messageTypeNotification:
		wh.handleNotification(notif)
		return c.NoContent(http.StatusNoContent)

	default:
		return c.NoContent(http.StatusNoContent)
	}
}

func (wh *WebhookHandler) handleNotification(notif notification) {
	if notif.Subscription.Type != helix.EventSubTypeChannelPointsCustomRewardRedemptionAdd {
		return
	}

	var event helix.EventSubChannelPointsCustomRewardRedemptionEvent
	if err := json.Unmarshal(notif.Event, &event); err != nil {
		slog.Error("Failed to parse redemption event", "error", err)
		return
	}

	wh.sink.HandleRedemption(effects.Redemption{
		RewardID:    event.Reward.ID,
		RewardTitle: event.Reward.Title,
		UserName:    event.UserName,
		UserInput:   event.UserInput,
	})
}
