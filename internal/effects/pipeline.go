// Package effects turns command results and reward redemptions into
// overlay broadcast messages.
package effects

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Alextibtab/twitch-streaming-tool/internal/chess"
	"github.com/Alextibtab/twitch-streaming-tool/internal/config"
	"github.com/Alextibtab/twitch-streaming-tool/internal/metrics"
	"github.com/Alextibtab/twitch-streaming-tool/internal/overlay"
)

// Broadcaster fans a message out to all open display clients.
type Broadcaster interface {
	Broadcast(msg overlay.Message)
}

// Effect is a display effect triggered by a channel point reward.
type Effect struct {
	Type   string
	Params map[string]any
}

// Redemption is an inbound channel point reward redemption.
type Redemption struct {
	RewardID    string
	RewardTitle string
	UserName    string
	UserInput   string
}

// Pipeline maps resolved command results and reward redemptions onto
// broadcast messages. Construction and broadcast are synchronous with the
// triggering call; there is no queue.
type Pipeline struct {
	hub     Broadcaster
	effects map[string]Effect
	clock   clockwork.Clock
}

// NewPipeline builds the static rewardID → effect table from configuration.
func NewPipeline(hub Broadcaster, rewards config.Rewards, clock clockwork.Clock) *Pipeline {
	effects := make(map[string]Effect)
	if rewards.DigitalRain != "" {
		effects[rewards.DigitalRain] = Effect{
			Type:   "shader",
			Params: map[string]any{"type": "digitalRain", "intensity": 0.8},
		}
	}
	if rewards.ColourShift != "" {
		effects[rewards.ColourShift] = Effect{
			Type:   "colour",
			Params: map[string]any{"shift": true, "duration": 5000},
		}
	}

	return &Pipeline{
		hub:     hub,
		effects: effects,
		clock:   clock,
	}
}

// HandleRedemption broadcasts the redemption notice and its mapped effect.
// Unknown reward identifiers are logged and dropped without broadcasting.
func (p *Pipeline) HandleRedemption(r Redemption) {
	effect, ok := p.effects[r.RewardID]
	if !ok {
		metrics.RedemptionsTotal.WithLabelValues("unknown").Inc()
		slog.Info("Unknown reward ID", "reward_id", r.RewardID, "reward_title", r.RewardTitle)
		return
	}

	metrics.RedemptionsTotal.WithLabelValues("mapped").Inc()
	slog.Info("Reward redeemed", "reward_title", r.RewardTitle, "user", r.UserName, "effect_type", effect.Type)

	timestamp := p.clock.Now().UTC().Format(time.RFC3339)

	p.hub.Broadcast(overlay.Message{
		Type: "reward_redeemed",
		Data: map[string]any{
			"rewardId":    r.RewardID,
			"rewardTitle": r.RewardTitle,
			"userName":    r.UserName,
			"userInput":   r.UserInput,
			"timestamp":   timestamp,
		},
	})

	data := make(map[string]any, len(effect.Params)+5)
	for k, v := range effect.Params {
		data[k] = v
	}
	data["rewardId"] = r.RewardID
	data["rewardTitle"] = r.RewardTitle
	data["userName"] = r.UserName
	data["userInput"] = r.UserInput
	data["timestamp"] = timestamp

	p.hub.Broadcast(overlay.Message{Type: effect.Type, Data: data})
}

// PublishRating merges per-provider results into a single chess_rating
// message keyed by provider name.
func (p *Pipeline) PublishRating(username string, results map[string]chess.Result) {
	data := map[string]any{"username": username}

	for provider, res := range results {
		entry := map[string]any{"found": res.Found}
		if res.Found && res.Rating != nil {
			if res.Rating.Rapid != nil {
				entry["rapid"] = *res.Rating.Rapid
			}
			if res.Rating.Blitz != nil {
				entry["blitz"] = *res.Rating.Blitz
			}
			if res.Rating.Bullet != nil {
				entry["bullet"] = *res.Rating.Bullet
			}
			if res.Rating.URL != "" {
				entry["url"] = res.Rating.URL
			}
		}
		data[provider] = entry
	}

	p.hub.Broadcast(overlay.Message{Type: "chess_rating", Data: data})
}
