package chess

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/Alextibtab/twitch-streaming-tool/internal/errors"
)

const chessComBaseURL = "https://api.chess.com"

type chessComProfile struct {
	PlayerID int64  `json:"player_id"`
	Username string `json:"username"`
	URL      string `json:"url"`
}

type chessComLast struct {
	Rating int `json:"rating"`
}

type chessComStats struct {
	ChessRapid *struct {
		Last chessComLast `json:"last"`
	} `json:"chess_rapid"`
	ChessBlitz *struct {
		Last chessComLast `json:"last"`
	} `json:"chess_blitz"`
	ChessBullet *struct {
		Last chessComLast `json:"last"`
	} `json:"chess_bullet"`
}

type chessComProvider struct {
	http *resty.Client
}

// NewChessComProvider creates the Chess.com rating provider. An empty
// baseURL uses the public API. Chess.com splits profile and stats across
// two endpoints; both are fetched per lookup.
func NewChessComProvider(baseURL string) Provider {
	if baseURL == "" {
		baseURL = chessComBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout)
	return &chessComProvider{http: client}
}

func (p *chessComProvider) Name() string {
	return "chesscom"
}

func (p *chessComProvider) Lookup(ctx context.Context, username string) (*Rating, error) {
	escaped := url.PathEscape(username)

	var profile chessComProfile
	resp, err := p.http.R().
		SetContext(ctx).
		SetResult(&profile).
		Get("/pub/player/" + escaped)
	if err != nil {
		return nil, apperrors.ExternalError("chess.com request failed", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, apperrors.NotFoundError("chess.com user not found").WithContext("username", username)
	default:
		return nil, apperrors.ExternalError("chess.com API error", nil).
			WithContext("status", resp.StatusCode()).
			WithContext("username", username)
	}

	var stats chessComStats
	resp, err = p.http.R().
		SetContext(ctx).
		SetResult(&stats).
		Get("/pub/player/" + escaped + "/stats")
	if err != nil {
		return nil, apperrors.ExternalError("chess.com stats request failed", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apperrors.ExternalError("chess.com stats API error", nil).
			WithContext("status", resp.StatusCode()).
			WithContext("username", username)
	}

	rating := &Rating{URL: profile.URL}
	if stats.ChessRapid != nil {
		rating.Rapid = &stats.ChessRapid.Last.Rating
	}
	if stats.ChessBlitz != nil {
		rating.Blitz = &stats.ChessBlitz.Last.Rating
	}
	if stats.ChessBullet != nil {
		rating.Bullet = &stats.ChessBullet.Last.Rating
	}
	return rating, nil
}
