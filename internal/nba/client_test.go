package nba

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/boxscore-backend/internal/provider"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(&Options{
		BaseURL:    srv.URL,
		MaxRetries: 3,
		Burst:      100,
		PerSecond:  1000, // effectively unlimited for tests
	})
	require.NoError(t, err)
	return c, srv
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(&Options{})
	assert.Error(t, err)
}

func TestTeamStanding_Success(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/standings", r.URL.Path)
		assert.Equal(t, "1610612744", r.URL.Query().Get("team_id"))
		assert.Equal(t, "2025-26", r.URL.Query().Get("season"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"standings": []map[string]any{{
				"nba_team_id":     1610612744,
				"season":          "2025-26",
				"season_type":     "Regular Season",
				"wins":            11,
				"losses":          11,
				"conference_rank": 8,
			}},
		})
	}))

	st, err := c.TeamStanding(context.Background(), 1610612744, "2025-26", "Regular Season")
	require.NoError(t, err)
	assert.Equal(t, 11, st.Wins)
	assert.Equal(t, 11, st.Losses)
	assert.Equal(t, 8, st.ConferenceRank)
}

func TestTeamStanding_EmptyIsNotFound(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"standings": []any{}})
	}))

	_, err := c.TeamStanding(context.Background(), 1, "2025-26", "Regular Season")
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestGetJSON_404IsNotFoundWithoutRetry(t *testing.T) {
	var calls atomic.Int64
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.TeamRoster(context.Background(), 42, "2025-26")
	assert.ErrorIs(t, err, provider.ErrNotFound)
	assert.EqualValues(t, 1, calls.Load(), "404 must not be retried")
}

func TestGetJSON_ServerErrorRetriesThenUnavailable(t *testing.T) {
	var calls atomic.Int64
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.TeamGames(context.Background(), 42, "2025-26", "Regular Season")
	assert.ErrorIs(t, err, provider.ErrUnavailable)
	assert.EqualValues(t, 3, calls.Load())
}

func TestGetJSON_RecoversOnRetry(t *testing.T) {
	var calls atomic.Int64
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"players": []map[string]any{{"nba_player_id": 201939, "full_name": "Stephen Curry"}},
		})
	}))

	players, err := c.TeamRoster(context.Background(), 42, "2025-26")
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "Stephen Curry", players[0].FullName)
	assert.EqualValues(t, 2, calls.Load())
}

func TestPlayerSeasonAverages_ZeroIDIsNotFound(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))

	_, err := c.PlayerSeasonAverages(context.Background(), 12345, "2025-26")
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestGameBoxscore_Success(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/games/0022500351/boxscore", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"nba_game_id": "0022500351",
			"game_status": "final",
			"home_score":  121,
			"away_score":  116,
			"player_stats": []map[string]any{{
				"nba_player_id": 201939,
				"player_name":   "Stephen Curry",
				"nba_team_id":   1610612744,
				"minutes":       "35:24",
				"points":        34,
				"rebounds":      5,
				"assists":       7,
			}},
		})
	}))

	box, err := c.GameBoxscore(context.Background(), "0022500351")
	require.NoError(t, err)
	assert.Equal(t, "final", box.GameStatus)
	require.NotNil(t, box.HomeScore)
	assert.Equal(t, 121, *box.HomeScore)
	require.Len(t, box.PlayerStats, 1)
	assert.Equal(t, "35:24", box.PlayerStats[0].Minutes)
	assert.Equal(t, 34, box.PlayerStats[0].Points)
}

func TestGameBoxscore_MissingGameIsNotFound(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))

	_, err := c.GameBoxscore(context.Background(), "0022599999")
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestGetJSON_SendsAuthAndUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("Authorization"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		json.NewEncoder(w).Encode(map[string]any{"teams": []map[string]any{{"nba_team_id": 1}}})
	}))
	defer srv.Close()

	c, err := NewClient(&Options{BaseURL: srv.URL, APIKey: "secret-key", Burst: 10, PerSecond: 1000})
	require.NoError(t, err)

	teams, err := c.ListTeams(context.Background())
	require.NoError(t, err)
	assert.Len(t, teams, 1)
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, backoffBase},
		{1, backoffBase},
		{2, time.Second},
		{3, 2 * time.Second},
		{6, 10 * time.Second}, // capped
		{11, backoffMax},
	}
	for _, tt := range tests {
		if got := backoffDelay(tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(%d) = %v, expected %v", tt.attempt, got, tt.want)
		}
	}
}

func TestLimiter_BlocksUntilRefill(t *testing.T) {
	l := newLimiter(1, 50) // one token, 50/s refill => ~20ms wait

	require.NoError(t, l.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestLimiter_RespectsContext(t *testing.T) {
	l := newLimiter(1, 0.001) // next token is ~1000s away

	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
