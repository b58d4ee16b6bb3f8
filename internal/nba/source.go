package nba

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/boxscore-backend/internal/provider"
)

// TeamDirectory resolves internal team IDs to upstream NBA team IDs. The
// database's team table implements it.
type TeamDirectory interface {
	NBATeamID(ctx context.Context, teamID int) (int, error)
}

// Source adapts the client to the resolver's Source contract: it parses a
// resource key, calls the matching endpoint, and returns the normalized
// payload as raw JSON.
type Source struct {
	client *Client
	teams  TeamDirectory
}

// NewSource creates a Source over the client and team directory.
func NewSource(client *Client, teams TeamDirectory) *Source {
	return &Source{client: client, teams: teams}
}

// Fetch retrieves the resource named by key from upstream.
func (s *Source) Fetch(ctx context.Context, key string) (json.RawMessage, error) {
	k, err := provider.ParseKey(key)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, provider.ErrNotFound)
	}

	var payload any
	switch k.Class {
	case provider.ClassStandings:
		nbaID, err := s.teams.NBATeamID(ctx, k.TeamID)
		if err != nil {
			return nil, err
		}
		payload, err = s.client.TeamStanding(ctx, nbaID, k.Season, k.SeasonType)
		if err != nil {
			return nil, err
		}
	case provider.ClassGames:
		nbaID, err := s.teams.NBATeamID(ctx, k.TeamID)
		if err != nil {
			return nil, err
		}
		games, err := s.client.TeamGames(ctx, nbaID, k.Season, k.SeasonType)
		if err != nil {
			return nil, err
		}
		payload = map[string]any{"games": games}
	case provider.ClassRoster:
		nbaID, err := s.teams.NBATeamID(ctx, k.TeamID)
		if err != nil {
			return nil, err
		}
		players, err := s.client.TeamRoster(ctx, nbaID, k.Season)
		if err != nil {
			return nil, err
		}
		payload = map[string]any{"players": players}
	case provider.ClassAverages:
		avg, err := s.client.PlayerSeasonAverages(ctx, k.PlayerID, k.Season)
		if err != nil {
			return nil, err
		}
		payload = avg
	case provider.ClassBoxscore:
		box, err := s.client.GameBoxscore(ctx, k.GameID)
		if err != nil {
			return nil, err
		}
		payload = box
	default:
		return nil, fmt.Errorf("unsupported resource class %q: %w", k.Class, provider.ErrNotFound)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", key, err)
	}
	return raw, nil
}
