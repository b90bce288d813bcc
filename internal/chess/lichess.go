package chess

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/Alextibtab/twitch-streaming-tool/internal/errors"
)

const (
	lichessBaseURL = "https://lichess.org"
	requestTimeout = 10 * time.Second
)

type lichessPerf struct {
	Rating int `json:"rating"`
	Games  int `json:"games"`
}

type lichessUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Perfs    struct {
		Rapid  *lichessPerf `json:"rapid"`
		Blitz  *lichessPerf `json:"blitz"`
		Bullet *lichessPerf `json:"bullet"`
	} `json:"perfs"`
	URL string `json:"url"`
}

type lichessProvider struct {
	http *resty.Client
}

// NewLichessProvider creates the Lichess rating provider. An empty baseURL
// uses the public API.
func NewLichessProvider(baseURL string) Provider {
	if baseURL == "" {
		baseURL = lichessBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout)
	return &lichessProvider{http: client}
}

func (p *lichessProvider) Name() string {
	return "lichess"
}

func (p *lichessProvider) Lookup(ctx context.Context, username string) (*Rating, error) {
	var user lichessUser
	resp, err := p.http.R().
		SetContext(ctx).
		SetResult(&user).
		Get("/api/user/" + url.PathEscape(username))
	if err != nil {
		return nil, apperrors.ExternalError("lichess request failed", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, apperrors.NotFoundError("lichess user not found").WithContext("username", username)
	default:
		return nil, apperrors.ExternalError("lichess API error", nil).
			WithContext("status", resp.StatusCode()).
			WithContext("username", username)
	}

	rating := &Rating{URL: user.URL}
	if user.Perfs.Rapid != nil {
		rating.Rapid = &user.Perfs.Rapid.Rating
	}
	if user.Perfs.Blitz != nil {
		rating.Blitz = &user.Perfs.Blitz.Rating
	}
	if user.Perfs.Bullet != nil {
		rating.Bullet = &user.Perfs.Bullet.Rating
	}
	return rating, nil
}
