package provider

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Class is a resource class. Each class carries its own TTL constant.
type Class string

const (
	ClassStandings Class = "standings"
	ClassGames     Class = "games"
	ClassRoster    Class = "roster"
	ClassAverages  Class = "averages"
	ClassBoxscore  Class = "boxscore"
)

// Per-class TTLs. Standings move fastest during a season; rosters barely
// move. Boxscores change play by play while a game is live, so they get the
// shortest window.
const (
	TTLStandings = 30 * time.Minute
	TTLGames     = time.Hour
	TTLRoster    = 24 * time.Hour
	TTLAverages  = time.Hour
	TTLBoxscore  = 10 * time.Minute
)

// TTL returns the freshness window for the class.
func (c Class) TTL() time.Duration {
	switch c {
	case ClassStandings:
		return TTLStandings
	case ClassGames:
		return TTLGames
	case ClassRoster:
		return TTLRoster
	case ClassAverages:
		return TTLAverages
	case ClassBoxscore:
		return TTLBoxscore
	default:
		return TTLGames
	}
}

// Key identifies one cacheable resource. String form:
//
//	team:{id}:standings:{season}:{seasonType}
//	team:{id}:games:{season}:{seasonType}
//	team:{id}:roster:{season}
//	player:{id}:averages:{season}
//	game:{gameId}:boxscore
//
// Game IDs are upstream strings like "0022500351", so they are carried
// verbatim rather than parsed as integers.
type Key struct {
	Class      Class
	TeamID     int
	PlayerID   int
	GameID     string
	Season     string
	SeasonType string
}

func (k Key) String() string {
	switch k.Class {
	case ClassStandings, ClassGames:
		return fmt.Sprintf("team:%d:%s:%s:%s", k.TeamID, k.Class, k.Season, k.SeasonType)
	case ClassRoster:
		return fmt.Sprintf("team:%d:roster:%s", k.TeamID, k.Season)
	case ClassAverages:
		return fmt.Sprintf("player:%d:averages:%s", k.PlayerID, k.Season)
	case ClassBoxscore:
		return fmt.Sprintf("game:%s:boxscore", k.GameID)
	default:
		return ""
	}
}

// StandingsKey builds the key for a team's standings in a season.
func StandingsKey(teamID int, season, seasonType string) Key {
	return Key{Class: ClassStandings, TeamID: teamID, Season: season, SeasonType: seasonType}
}

// GamesKey builds the key for a team's game list in a season.
func GamesKey(teamID int, season, seasonType string) Key {
	return Key{Class: ClassGames, TeamID: teamID, Season: season, SeasonType: seasonType}
}

// RosterKey builds the key for a team's roster in a season.
func RosterKey(teamID int, season string) Key {
	return Key{Class: ClassRoster, TeamID: teamID, Season: season}
}

// AveragesKey builds the key for a player's season averages.
func AveragesKey(playerID int, season string) Key {
	return Key{Class: ClassAverages, PlayerID: playerID, Season: season}
}

// BoxscoreKey builds the key for one game's boxscore.
func BoxscoreKey(gameID string) Key {
	return Key{Class: ClassBoxscore, GameID: gameID}
}

// ParseKey parses the string form back into a Key. It rejects anything that
// does not match one of the known shapes.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return Key{}, fmt.Errorf("invalid resource key %q", s)
	}

	if parts[0] == "game" {
		if len(parts) != 3 || parts[1] == "" || Class(parts[2]) != ClassBoxscore {
			return Key{}, fmt.Errorf("invalid resource key %q", s)
		}
		return BoxscoreKey(parts[1]), nil
	}
	if len(parts) < 4 {
		return Key{}, fmt.Errorf("invalid resource key %q", s)
	}

	id, err := strconv.Atoi(parts[1])
	if err != nil || id <= 0 {
		return Key{}, fmt.Errorf("invalid resource key %q: bad id", s)
	}

	switch {
	case parts[0] == "team" && Class(parts[2]) == ClassStandings && len(parts) == 5:
		return StandingsKey(id, parts[3], parts[4]), nil
	case parts[0] == "team" && Class(parts[2]) == ClassGames && len(parts) == 5:
		return GamesKey(id, parts[3], parts[4]), nil
	case parts[0] == "team" && Class(parts[2]) == ClassRoster && len(parts) == 4:
		return RosterKey(id, parts[3]), nil
	case parts[0] == "player" && Class(parts[2]) == ClassAverages && len(parts) == 4:
		return AveragesKey(id, parts[3]), nil
	default:
		return Key{}, fmt.Errorf("invalid resource key %q", s)
	}
}

// TTLForKey returns the TTL of the key's resource class, falling back to the
// games TTL for keys it cannot parse.
func TTLForKey(key string) time.Duration {
	k, err := ParseKey(key)
	if err != nil {
		return TTLGames
	}
	return k.Class.TTL()
}
