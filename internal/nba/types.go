package nba

import "time"

// Team is a franchise from the upstream team directory.
type Team struct {
	NBATeamID    int    `json:"nba_team_id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Conference   string `json:"conference"` // East, West
	Division     string `json:"division"`
}

// Standing is a team's position in the standings for one season.
type Standing struct {
	NBATeamID      int     `json:"nba_team_id"`
	Season         string  `json:"season"`
	SeasonType     string  `json:"season_type"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	ConferenceRank int     `json:"conference_rank"`
	DivisionRank   int     `json:"division_rank,omitempty"`
	WinPct         float64 `json:"win_pct,omitempty"`
	GamesBack      float64 `json:"games_back,omitempty"`
	Streak         string  `json:"streak,omitempty"`  // e.g. "W3"
	Last10         string  `json:"last_10,omitempty"` // e.g. "7-3"
}

// Game is one scheduled or completed game.
type Game struct {
	NBAGameID    string    `json:"nba_game_id"`
	Season       string    `json:"season"`
	SeasonType   string    `json:"season_type"`
	HomeTeamAbbr string    `json:"home_team_abbr"`
	AwayTeamAbbr string    `json:"away_team_abbr"`
	StartTimeUTC time.Time `json:"start_time_utc"`
	Status       string    `json:"status"` // scheduled, in_progress, final
	HomeScore    *int      `json:"home_score,omitempty"`
	AwayScore    *int      `json:"away_score,omitempty"`
}

// RosterPlayer is one player on a team roster.
type RosterPlayer struct {
	NBAPlayerID  int    `json:"nba_player_id"`
	FullName     string `json:"full_name"`
	JerseyNumber string `json:"jersey_number,omitempty"`
	Position     string `json:"position,omitempty"`
}

// Boxscore is one game's score and per-player stat lines.
type Boxscore struct {
	NBAGameID   string         `json:"nba_game_id"`
	GameStatus  string         `json:"game_status"` // scheduled, in_progress, final
	HomeScore   *int           `json:"home_score,omitempty"`
	AwayScore   *int           `json:"away_score,omitempty"`
	PlayerStats []BoxscoreLine `json:"player_stats"`
}

// BoxscoreLine is one player's stat line in a boxscore. Minutes stay in the
// upstream "MM:SS" string form.
type BoxscoreLine struct {
	NBAPlayerID int    `json:"nba_player_id"`
	PlayerName  string `json:"player_name"`
	NBATeamID   int    `json:"nba_team_id"`
	Minutes     string `json:"minutes"`
	Points      int    `json:"points"`
	Rebounds    int    `json:"rebounds"`
	Assists     int    `json:"assists"`
	Steals      int    `json:"steals"`
	Blocks      int    `json:"blocks"`
}

// SeasonAverages are a player's per-game averages over one season.
type SeasonAverages struct {
	NBAPlayerID   int     `json:"nba_player_id"`
	Season        string  `json:"season"`
	GamesPlayed   int     `json:"games_played"`
	MinutesPG     float64 `json:"minutes_pg"`
	PointsPG      float64 `json:"points_pg"`
	ReboundsPG    float64 `json:"rebounds_pg"`
	AssistsPG     float64 `json:"assists_pg"`
	StealsPG      float64 `json:"steals_pg"`
	BlocksPG      float64 `json:"blocks_pg"`
	FieldGoalPct  float64 `json:"field_goal_pct"`
	ThreePointPct float64 `json:"three_point_pct"`
	FreeThrowPct  float64 `json:"free_throw_pct"`
}
