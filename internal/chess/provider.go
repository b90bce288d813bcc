package chess

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sony/gobreaker"

	apperrors "github.com/Alextibtab/twitch-streaming-tool/internal/errors"
)

// Rating holds the per-format ratings one provider reports for a player.
// Nil fields mean the player has no rated games in that format.
type Rating struct {
	Rapid  *int
	Blitz  *int
	Bullet *int
	URL    string
}

// Provider looks up a player's ratings on one external rating service.
// A missing account is reported as a not-found error, which callers treat
// as a normal negative result rather than a failure.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, username string) (*Rating, error)
}

// lookupOutcome carries a not-found result through the circuit breaker
// without counting it as a failure.
type lookupOutcome struct {
	rating *Rating
	err    error
}

// breakerProvider wraps a provider with a circuit breaker so a struggling
// rating service is backed off instead of hammered on every command.
type breakerProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker
}

// WithBreaker wraps a provider in a circuit breaker. Only genuine lookup
// failures trip the breaker; not-found results pass through untouched.
func WithBreaker(p Provider) Provider {
	settings := gobreaker.Settings{
		Name: p.Name(),
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Rating provider circuit state changed", "provider", name, "from", from.String(), "to", to.String())
		},
	}
	return &breakerProvider{
		inner:   p,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *breakerProvider) Name() string {
	return b.inner.Name()
}

func (b *breakerProvider) Lookup(ctx context.Context, username string) (*Rating, error) {
	v, err := b.breaker.Execute(func() (any, error) {
		rating, err := b.inner.Lookup(ctx, username)
		if err != nil && apperrors.IsNotFound(err) {
			return lookupOutcome{err: err}, nil
		}
		if err != nil {
			return nil, err
		}
		return lookupOutcome{rating: rating}, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperrors.ExternalError("rating provider unavailable", err).WithContext("provider", b.inner.Name())
	}
	if err != nil {
		return nil, err
	}

	outcome := v.(lookupOutcome)
	return outcome.rating, outcome.err
}
