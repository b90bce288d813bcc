// Package twitch wraps the Helix API surface the application consumes:
// custom reward listing and EventSub subscription management.
package twitch

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/nicklaw5/helix/v2"
)

// Reward is one channel point reward as exposed on /api/rewards.
type Reward struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Cost   int    `json:"cost"`
	Prompt string `json:"prompt"`
}

// Client is an app-token Helix client.
type Client struct {
	mu     sync.Mutex
	client *helix.Client
}

// NewClient creates a Helix client and requests an app access token.
func NewClient(clientID, clientSecret string) (*Client, error) {
	client, err := helix.NewClient(&helix.Options{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create helix client: %w", err)
	}

	resp, err := client.RequestAppAccessToken(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to request app access token: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code requesting app token: %d, error: %s", resp.StatusCode, resp.ErrorMessage)
	}
	client.SetAppAccessToken(resp.Data.AccessToken)

	return &Client{client: client}, nil
}

// ListCustomRewards returns the broadcaster's channel point rewards.
func (c *Client) ListCustomRewards(_ context.Context, broadcasterID string) ([]Reward, error) {
	c.mu.Lock()
	resp, err := c.client.GetCustomRewards(&helix.GetCustomRewardsParams{
		BroadcasterID: broadcasterID,
	})
	c.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("failed to fetch custom rewards: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, error: %s, message: %s", resp.StatusCode, resp.Error, resp.ErrorMessage)
	}

	rewards := make([]Reward, 0, len(resp.Data.ChannelCustomRewards))
	for _, r := range resp.Data.ChannelCustomRewards {
		rewards = append(rewards, Reward{
			ID:     r.ID,
			Title:  r.Title,
			Cost:   r.Cost,
			Prompt: r.Prompt,
		})
	}
	return rewards, nil
}

// SubscribeRedemptions creates the webhook EventSub subscription for channel
// point redemptions and returns the subscription ID.
func (c *Client) SubscribeRedemptions(_ context.Context, broadcasterID, callbackURL, secret string) (string, error) {
	c.mu.Lock()
	resp, err := c.client.CreateEventSubSubscription(&helix.EventSubSubscription{
		Type:    helix.EventSubTypeChannelPointsCustomRewardRedemptionAdd,
		Version: "1",
		Condition: helix.EventSubCondition{
			BroadcasterUserID: broadcasterID,
		},
		Transport: helix.EventSubTransport{
			Method:   "webhook",
			Callback: callbackURL,
			Secret:   secret,
		},
	})
	c.mu.Unlock()

	if err != nil {
		return "", fmt.Errorf("failed to create eventsub subscription: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("unexpected status code: %d, error: %s, message: %s", resp.StatusCode, resp.Error, resp.ErrorMessage)
	}
	if len(resp.Data.EventSubSubscriptions) == 0 {
		return "", fmt.Errorf("no subscription returned")
	}

	return resp.Data.EventSubSubscriptions[0].ID, nil
}
