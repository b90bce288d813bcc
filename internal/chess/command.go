package chess

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Alextibtab/twitch-streaming-tool/internal/chat"
	apperrors "github.com/Alextibtab/twitch-streaming-tool/internal/errors"
	"github.com/Alextibtab/twitch-streaming-tool/internal/metrics"
)

const usageReply = "Chess commands: !chess rating [username]"

// Result is one provider's contribution to a rating lookup.
type Result struct {
	Found  bool
	Rating *Rating
}

// RatingPublisher pushes a merged rating result to the display clients.
// Implemented by the effects pipeline.
type RatingPublisher interface {
	PublishRating(username string, results map[string]Result)
}

// Command implements the !chess chat command. Providers are queried in
// parallel per invocation; each provider's success or failure is independent.
type Command struct {
	providers []Provider
	cache     *Cache
	publisher RatingPublisher
	group     singleflight.Group
	labels    map[string]string
}

// NewCommand wires the chess command. Provider order fixes the reply and
// payload ordering.
func NewCommand(providers []Provider, cache *Cache, publisher RatingPublisher) *Command {
	return &Command{
		providers: providers,
		cache:     cache,
		publisher: publisher,
		labels: map[string]string{
			"lichess":  "Lichess",
			"chesscom": "Chess[.]com",
		},
	}
}

// Handle is the chat.Handler for !chess.
func (c *Command) Handle(msg chat.Message) (string, error) {
	args := strings.Fields(msg.Text)[1:]

	var subCommand string
	if len(args) > 0 {
		subCommand = strings.ToLower(args[0])
	}

	switch subCommand {
	case "rating":
		target := msg.User.Login
		if len(args) > 1 {
			target = args[1]
		}
		return c.handleRating(target), nil
	default:
		return usageReply, nil
	}
}

func (c *Command) handleRating(username string) string {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	results := c.lookupAll(ctx, username)

	if c.publisher != nil {
		c.publisher.PublishRating(username, results)
	}

	anyFound := false
	parts := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		label := c.label(p.Name())
		res := results[p.Name()]
		if !res.Found {
			parts = append(parts, label+": no account")
			continue
		}
		anyFound = true
		parts = append(parts, formatRating(label, res.Rating))
	}

	if !anyFound {
		return fmt.Sprintf("%s not found on Lichess or Chess[.]com. Make sure the username is correct.", username)
	}
	return fmt.Sprintf("%s - %s", username, strings.Join(parts, " | "))
}

// lookupAll resolves every provider concurrently and merges the results
// keyed by provider name.
func (c *Command) lookupAll(ctx context.Context, username string) map[string]Result {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]Result, len(c.providers))
	)

	for _, p := range c.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			res := c.resolve(ctx, p, username)
			mu.Lock()
			results[p.Name()] = res
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	return results
}

// resolve serves one provider lookup from the cache when fresh, otherwise
// fetches. A failed fetch leaves any stale entry untouched and reports the
// provider as absent for this request.
func (c *Command) resolve(ctx context.Context, p Provider, username string) Result {
	provider := p.Name()

	if entry, ok := c.cache.Get(username, provider); ok {
		if c.cache.Fresh(entry) {
			metrics.RatingCacheTotal.WithLabelValues(provider, "hit").Inc()
			slog.Info("Using cached rating", "provider", provider, "username", username)
			return Result{Found: true, Rating: entry.Data}
		}
		metrics.RatingCacheTotal.WithLabelValues(provider, "stale").Inc()
	} else {
		metrics.RatingCacheTotal.WithLabelValues(provider, "miss").Inc()
	}

	// Coalesce concurrent fetches for the same key.
	v, err, _ := c.group.Do(provider+":"+username, func() (any, error) {
		return p.Lookup(ctx, username)
	})

	switch {
	case err == nil:
		rating := v.(*Rating)
		c.cache.Put(username, provider, rating)
		metrics.RatingFetchesTotal.WithLabelValues(provider, "ok").Inc()
		return Result{Found: true, Rating: rating}
	case apperrors.IsNotFound(err):
		metrics.RatingFetchesTotal.WithLabelValues(provider, "not_found").Inc()
		return Result{Found: false}
	default:
		metrics.RatingFetchesTotal.WithLabelValues(provider, "error").Inc()
		slog.Error("Rating provider lookup failed", "provider", provider, "username", username, "error", err)
		return Result{Found: false}
	}
}

func (c *Command) label(provider string) string {
	if label, ok := c.labels[provider]; ok {
		return label
	}
	return provider
}

func formatRating(label string, r *Rating) string {
	var ratings []string
	if r.Rapid != nil {
		ratings = append(ratings, fmt.Sprintf("⏱️: %d", *r.Rapid))
	}
	if r.Blitz != nil {
		ratings = append(ratings, fmt.Sprintf("🌩️: %d", *r.Blitz))
	}
	if r.Bullet != nil {
		ratings = append(ratings, fmt.Sprintf("🚅: %d", *r.Bullet))
	}

	if len(ratings) == 0 {
		return label + ": has no rated games"
	}
	return fmt.Sprintf("%s: (%s)", label, strings.Join(ratings, ", "))
}
