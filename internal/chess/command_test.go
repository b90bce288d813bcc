package chess

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alextibtab/twitch-streaming-tool/internal/chat"
)

type fakePublisher struct {
	username string
	results  map[string]Result
}

func (f *fakePublisher) PublishRating(username string, results map[string]Result) {
	f.username = username
	f.results = results
}

func ratingCommand(user, text string) chat.Message {
	return chat.Message{
		Channel: "testchannel",
		User:    chat.User{ID: "123", Login: user, DisplayName: user},
		Text:    text,
	}
}

// lichessServer serves GET /api/user/{username} with the given status and body.
func lichessServer(t *testing.T, status int, body string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		require.True(t, strings.HasPrefix(r.URL.Path, "/api/user/"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// chessComServer serves the profile and stats endpoints.
func chessComServer(t *testing.T, profileStatus int, statsBody string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/stats"):
			w.Write([]byte(statsBody))
		default:
			w.WriteHeader(profileStatus)
			w.Write([]byte(`{"player_id":1,"username":"magnus","url":"https://www.chess.com/member/magnus"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCommand_UnknownSubcommandReturnsUsage(t *testing.T) {
	cmd := NewCommand(nil, NewCache(clockwork.NewFakeClock()), nil)

	reply, err := cmd.Handle(ratingCommand("alice", "!chess"))
	require.NoError(t, err)
	assert.Equal(t, usageReply, reply)

	reply, err = cmd.Handle(ratingCommand("alice", "!chess openings"))
	require.NoError(t, err)
	assert.Equal(t, usageReply, reply)
}

func TestCommand_RatingMergesFoundAndMissingProviders(t *testing.T) {
	lichess := lichessServer(t, http.StatusOK,
		`{"id":"magnus","username":"magnus","perfs":{"rapid":{"rating":1500,"games":10}},"url":"https://lichess.org/@/magnus"}`, nil)
	chesscom := chessComServer(t, http.StatusNotFound, "")

	publisher := &fakePublisher{}
	providers := []Provider{
		NewLichessProvider(lichess.URL),
		NewChessComProvider(chesscom.URL),
	}
	cmd := NewCommand(providers, NewCache(clockwork.NewFakeClock()), publisher)

	reply, err := cmd.Handle(ratingCommand("alice", "!chess rating magnus"))
	require.NoError(t, err)

	assert.Contains(t, reply, "magnus - ")
	assert.Contains(t, reply, "Lichess: (⏱️: 1500)")
	assert.Contains(t, reply, "Chess[.]com: no account")

	require.NotNil(t, publisher.results)
	assert.Equal(t, "magnus", publisher.username)

	lichessRes := publisher.results["lichess"]
	require.True(t, lichessRes.Found)
	require.NotNil(t, lichessRes.Rating.Rapid)
	assert.Equal(t, 1500, *lichessRes.Rating.Rapid)
	assert.Nil(t, lichessRes.Rating.Blitz)

	assert.False(t, publisher.results["chesscom"].Found)
}

func TestCommand_RatingDefaultsToSenderLogin(t *testing.T) {
	var requested string
	lichess := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"alice","username":"alice","perfs":{},"url":"https://lichess.org/@/alice"}`))
	}))
	t.Cleanup(lichess.Close)

	providers := []Provider{NewLichessProvider(lichess.URL)}
	cmd := NewCommand(providers, NewCache(clockwork.NewFakeClock()), nil)

	_, err := cmd.Handle(ratingCommand("alice", "!chess rating"))
	require.NoError(t, err)

	assert.Equal(t, "/api/user/alice", requested)
}

func TestCommand_RatingNotFoundAnywhere(t *testing.T) {
	lichess := lichessServer(t, http.StatusNotFound, `{}`, nil)
	chesscom := chessComServer(t, http.StatusNotFound, "")

	providers := []Provider{
		NewLichessProvider(lichess.URL),
		NewChessComProvider(chesscom.URL),
	}
	cmd := NewCommand(providers, NewCache(clockwork.NewFakeClock()), &fakePublisher{})

	reply, err := cmd.Handle(ratingCommand("alice", "!chess rating ghost"))
	require.NoError(t, err)

	assert.Equal(t, "ghost not found on Lichess or Chess[.]com. Make sure the username is correct.", reply)
}

func TestCommand_NoRatedGames(t *testing.T) {
	lichess := lichessServer(t, http.StatusOK,
		`{"id":"newbie","username":"newbie","perfs":{},"url":"https://lichess.org/@/newbie"}`, nil)

	providers := []Provider{NewLichessProvider(lichess.URL)}
	cmd := NewCommand(providers, NewCache(clockwork.NewFakeClock()), nil)

	reply, err := cmd.Handle(ratingCommand("alice", "!chess rating newbie"))
	require.NoError(t, err)

	assert.Contains(t, reply, "Lichess: has no rated games")
}

func TestCommand_FreshCacheHitSkipsFetch(t *testing.T) {
	var hits atomic.Int64
	lichess := lichessServer(t, http.StatusOK,
		`{"id":"magnus","username":"magnus","perfs":{"blitz":{"rating":3200,"games":500}},"url":"https://lichess.org/@/magnus"}`, &hits)

	providers := []Provider{NewLichessProvider(lichess.URL)}
	cmd := NewCommand(providers, NewCache(clockwork.NewFakeClock()), nil)

	_, err := cmd.Handle(ratingCommand("alice", "!chess rating magnus"))
	require.NoError(t, err)
	require.Equal(t, int64(1), hits.Load())

	reply, err := cmd.Handle(ratingCommand("bob", "!chess rating magnus"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), hits.Load(), "second lookup must be served from cache")
	assert.Contains(t, reply, "🌩️: 3200")
}

func TestCommand_StaleEntryRefetchedAfterTTL(t *testing.T) {
	var hits atomic.Int64
	lichess := lichessServer(t, http.StatusOK,
		`{"id":"magnus","username":"magnus","perfs":{"blitz":{"rating":3200,"games":500}},"url":"https://lichess.org/@/magnus"}`, &hits)

	clock := clockwork.NewFakeClock()
	providers := []Provider{NewLichessProvider(lichess.URL)}
	cmd := NewCommand(providers, NewCache(clock), nil)

	_, err := cmd.Handle(ratingCommand("alice", "!chess rating magnus"))
	require.NoError(t, err)

	clock.Advance(TTL + time.Second)

	_, err = cmd.Handle(ratingCommand("alice", "!chess rating magnus"))
	require.NoError(t, err)

	assert.Equal(t, int64(2), hits.Load())
}

func TestCommand_FailedFetchLeavesStaleEntryUntouched(t *testing.T) {
	lichess := lichessServer(t, http.StatusInternalServerError, `{}`, nil)

	clock := clockwork.NewFakeClock()
	cache := NewCache(clock)
	cache.Put("magnus", "lichess", &Rating{Blitz: intPtr(3200)})
	clock.Advance(TTL + time.Second)

	publisher := &fakePublisher{}
	providers := []Provider{NewLichessProvider(lichess.URL)}
	cmd := NewCommand(providers, cache, publisher)

	reply, err := cmd.Handle(ratingCommand("alice", "!chess rating magnus"))
	require.NoError(t, err)

	// Provider failure reads as absent for this request
	assert.Contains(t, reply, "not found on Lichess")
	assert.False(t, publisher.results["lichess"].Found)

	// The stale entry survives for the next successful fetch to supersede
	entry, ok := cache.Get("magnus", "lichess")
	require.True(t, ok)
	assert.Equal(t, 3200, *entry.Data.Blitz)
	assert.False(t, cache.Fresh(entry))
}
