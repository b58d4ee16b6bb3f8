// Package nba is the client for the upstream NBA stats API. It normalizes
// upstream responses into the payload shapes the rest of the backend stores
// and serves, and shields callers from upstream flakiness with rate limiting
// and bounded retries.
package nba

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonathan/boxscore-backend/internal/provider"
)

// DefaultTimeout is the per-request timeout for upstream calls.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent identifies this backend to the upstream API.
const DefaultUserAgent = "boxscore-backend/1.0"

const defaultMaxRetries = 3

// Options configures the client.
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	UserAgent  string
	MaxRetries int
	// Burst and PerSecond configure the request rate limiter.
	Burst     int
	PerSecond float64
}

// DefaultOptions returns defaults matching upstream's documented limits.
func DefaultOptions() *Options {
	return &Options{
		Timeout:    DefaultTimeout,
		UserAgent:  DefaultUserAgent,
		MaxRetries: defaultMaxRetries,
		Burst:      5,
		PerSecond:  1.5,
	}
}

// Client calls the upstream stats API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	userAgent  string
	maxRetries int
	limiter    *limiter
}

// NewClient creates a client for the given options. A nil options value uses
// defaults, but BaseURL must be set.
func NewClient(opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("nba client: base URL is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	if opts.PerSecond <= 0 {
		opts.PerSecond = 1.5
	}

	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		httpClient: &http.Client{Timeout: opts.Timeout},
		userAgent:  opts.UserAgent,
		maxRetries: opts.MaxRetries,
		limiter:    newLimiter(opts.Burst, opts.PerSecond),
	}, nil
}

// ListTeams returns the upstream team directory.
func (c *Client) ListTeams(ctx context.Context) ([]Team, error) {
	var resp struct {
		Teams []Team `json:"teams"`
	}
	if err := c.getJSON(ctx, "/v1/teams", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Teams, nil
}

// TeamStanding returns one team's standings row for a season.
func (c *Client) TeamStanding(ctx context.Context, nbaTeamID int, season, seasonType string) (*Standing, error) {
	q := url.Values{
		"team_id":     {strconv.Itoa(nbaTeamID)},
		"season":      {season},
		"season_type": {seasonType},
	}
	var resp struct {
		Standings []Standing `json:"standings"`
	}
	if err := c.getJSON(ctx, "/v1/standings", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Standings) == 0 {
		return nil, fmt.Errorf("standings for team %d in %s: %w", nbaTeamID, season, provider.ErrNotFound)
	}
	return &resp.Standings[0], nil
}

// TeamGames returns a team's games for a season, ordered by start time.
func (c *Client) TeamGames(ctx context.Context, nbaTeamID int, season, seasonType string) ([]Game, error) {
	q := url.Values{
		"team_id":     {strconv.Itoa(nbaTeamID)},
		"season":      {season},
		"season_type": {seasonType},
	}
	var resp struct {
		Games []Game `json:"games"`
	}
	if err := c.getJSON(ctx, "/v1/games", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Games) == 0 {
		return nil, fmt.Errorf("games for team %d in %s: %w", nbaTeamID, season, provider.ErrNotFound)
	}
	return resp.Games, nil
}

// TeamRoster returns a team's current roster for a season.
func (c *Client) TeamRoster(ctx context.Context, nbaTeamID int, season string) ([]RosterPlayer, error) {
	q := url.Values{"season": {season}}
	var resp struct {
		Players []RosterPlayer `json:"players"`
	}
	path := fmt.Sprintf("/v1/teams/%d/roster", nbaTeamID)
	if err := c.getJSON(ctx, path, q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Players) == 0 {
		return nil, fmt.Errorf("roster for team %d in %s: %w", nbaTeamID, season, provider.ErrNotFound)
	}
	return resp.Players, nil
}

// GameBoxscore returns the boxscore for one game.
func (c *Client) GameBoxscore(ctx context.Context, nbaGameID string) (*Boxscore, error) {
	var box Boxscore
	path := fmt.Sprintf("/v1/games/%s/boxscore", url.PathEscape(nbaGameID))
	if err := c.getJSON(ctx, path, nil, &box); err != nil {
		return nil, err
	}
	if box.NBAGameID == "" {
		return nil, fmt.Errorf("boxscore for game %s: %w", nbaGameID, provider.ErrNotFound)
	}
	return &box, nil
}

// PlayerSeasonAverages returns a player's per-game averages for a season.
func (c *Client) PlayerSeasonAverages(ctx context.Context, nbaPlayerID int, season string) (*SeasonAverages, error) {
	q := url.Values{"season": {season}}
	var avg SeasonAverages
	path := fmt.Sprintf("/v1/players/%d/season_averages", nbaPlayerID)
	if err := c.getJSON(ctx, path, q, &avg); err != nil {
		return nil, err
	}
	if avg.NBAPlayerID == 0 {
		return nil, fmt.Errorf("season averages for player %d in %s: %w", nbaPlayerID, season, provider.ErrNotFound)
	}
	return &avg, nil
}

// getJSON performs a rate-limited GET with bounded retries and decodes the
// response body into out. 404s and empty bodies map to ErrNotFound; network
// failures, timeouts, and 5xx responses map to ErrUnavailable.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoffDelay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("GET %s: %w: %v", u, provider.ErrUnavailable, ctx.Err())
			case <-timer.C:
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("GET %s: %w: %v", u, provider.ErrUnavailable, err)
		}

		done, err := c.doOnce(ctx, u, out)
		if done {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// doOnce performs a single request. The bool result is true when the outcome
// is final (success or non-retryable failure).
func (c *Client) doOnce(ctx context.Context, u string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return true, fmt.Errorf("GET %s: %w", u, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Covers timeouts and connection failures; retryable.
		return false, fmt.Errorf("GET %s: %w: %v", u, provider.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return true, fmt.Errorf("GET %s: status 404: %w", u, provider.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return false, fmt.Errorf("GET %s: status %d: %w", u, resp.StatusCode, provider.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return true, fmt.Errorf("GET %s: unexpected status %d: %w", u, resp.StatusCode, provider.ErrUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("GET %s: read body: %w: %v", u, provider.ErrUnavailable, err)
	}
	if len(body) == 0 {
		return true, fmt.Errorf("GET %s: empty body: %w", u, provider.ErrNotFound)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return true, fmt.Errorf("GET %s: decode response: %w", u, err)
	}
	return true, nil
}

const (
	backoffBase = 500 * time.Millisecond
	backoffMax  = 10 * time.Second
)

// backoffDelay returns the exponential backoff for a retry attempt.
func backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		return backoffBase
	}
	if attempt > 10 {
		return backoffMax
	}
	d := backoffBase * time.Duration(1<<(attempt-1))
	if d > backoffMax {
		return backoffMax
	}
	return d
}
