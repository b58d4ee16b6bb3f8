package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/boxscore-backend/internal/provider"
)

// resourceMeta is the provenance envelope returned next to each cached
// payload.
type resourceMeta struct {
	Source           string    `json:"source"`
	IsStale          bool      `json:"is_stale"`
	IsManualOverride bool      `json:"is_manual_override"`
	LastFetchedAt    time.Time `json:"last_fetched_at"`
}

func metaFor(res provider.Result) resourceMeta {
	m := resourceMeta{IsStale: res.Stale}
	if res.Record != nil {
		m.Source = res.Record.Source
		m.IsManualOverride = res.Record.ManualOverride
		m.LastFetchedAt = res.Record.LastFetchedAt
	}
	return m
}

// parsePathInt parses a positive integer path parameter.
func parsePathInt(r *http.Request, key string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(key))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// seasonParams reads the season context from the query, falling back to the
// configured current season.
func (s *Server) seasonParams(r *http.Request) (season, seasonType string) {
	q := r.URL.Query()
	season = q.Get("season")
	if season == "" {
		season = s.season
	}
	seasonType = q.Get("type")
	if seasonType == "" {
		seasonType = s.seasonType
	}
	return season, seasonType
}

// wantsRefresh reports whether the request asked to bypass freshness.
func wantsRefresh(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("refresh"))
	return err == nil && v
}

// serveResource resolves key and writes the payload with its _meta envelope.
func (s *Server) serveResource(w http.ResponseWriter, r *http.Request, key string) {
	res, err := s.resolver.Resolve(r.Context(), key, wantsRefresh(r))
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"data":  json.RawMessage(res.Payload),
		"_meta": metaFor(res),
	})
}

// handleListTeams lists the team directory
func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.teams.ListTeams(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"teams": teams,
		"count": len(teams),
	})
}

// handleGetTeam retrieves a team by ID
func (s *Server) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathInt(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid team ID")
		return
	}

	team, err := s.teams.GetTeam(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if team == nil {
		s.errorResponse(w, http.StatusNotFound, "Team not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, team)
}

// handleGetTeamByAbbreviation retrieves a team by its abbreviation
func (s *Server) handleGetTeamByAbbreviation(w http.ResponseWriter, r *http.Request) {
	abbr := r.URL.Query().Get("abbr")
	if abbr == "" {
		s.errorResponse(w, http.StatusBadRequest, "Team abbreviation is required")
		return
	}

	team, err := s.teams.GetTeamByAbbreviation(r.Context(), abbr)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if team == nil {
		s.errorResponse(w, http.StatusNotFound, "Team not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, team)
}

// handleTeamStandings returns a team's standings for a season
func (s *Server) handleTeamStandings(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathInt(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid team ID")
		return
	}

	season, seasonType := s.seasonParams(r)
	s.serveResource(w, r, provider.StandingsKey(id, season, seasonType).String())
}

// handleTeamGames returns a team's game list for a season
func (s *Server) handleTeamGames(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathInt(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid team ID")
		return
	}

	season, seasonType := s.seasonParams(r)
	s.serveResource(w, r, provider.GamesKey(id, season, seasonType).String())
}

// handleTeamRoster returns a team's roster for a season
func (s *Server) handleTeamRoster(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathInt(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid team ID")
		return
	}

	season, _ := s.seasonParams(r)
	s.serveResource(w, r, provider.RosterKey(id, season).String())
}

// handlePlayerAverages returns a player's season averages
func (s *Server) handlePlayerAverages(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathInt(r, "id")
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid player ID")
		return
	}

	season, _ := s.seasonParams(r)
	s.serveResource(w, r, provider.AveragesKey(id, season).String())
}

// handleGameBoxscore returns one game's boxscore. Game IDs are opaque
// upstream strings, so the only validation is that the segment cannot clash
// with the key separator.
func (s *Server) handleGameBoxscore(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	if gameID == "" || strings.Contains(gameID, ":") {
		s.errorResponse(w, http.StatusBadRequest, "Invalid game ID")
		return
	}

	s.serveResource(w, r, provider.BoxscoreKey(gameID).String())
}
