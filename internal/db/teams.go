package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/boxscore-backend/internal/provider"
)

// Team is a row in the static team directory.
type Team struct {
	ID           int    `json:"id"`
	NBATeamID    int    `json:"nba_team_id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Conference   string `json:"conference"`
	Division     string `json:"division"`
}

// ListTeams returns all teams ordered by name.
func (db *DB) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, nba_team_id, name, abbreviation, conference, division
		 FROM teams ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.NBATeamID, &t.Name, &t.Abbreviation, &t.Conference, &t.Division); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, nil
}

// GetTeam retrieves a team by internal ID. Returns nil when not found.
func (db *DB) GetTeam(ctx context.Context, id int) (*Team, error) {
	var t Team
	err := db.pool.QueryRow(ctx,
		`SELECT id, nba_team_id, name, abbreviation, conference, division
		 FROM teams WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.NBATeamID, &t.Name, &t.Abbreviation, &t.Conference, &t.Division)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}
	return &t, nil
}

// GetTeamByAbbreviation retrieves a team by abbreviation, case-insensitively.
func (db *DB) GetTeamByAbbreviation(ctx context.Context, abbr string) (*Team, error) {
	var t Team
	err := db.pool.QueryRow(ctx,
		`SELECT id, nba_team_id, name, abbreviation, conference, division
		 FROM teams WHERE UPPER(abbreviation) = $1`,
		strings.ToUpper(abbr),
	).Scan(&t.ID, &t.NBATeamID, &t.Name, &t.Abbreviation, &t.Conference, &t.Division)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get team %s: %w", abbr, err)
	}
	return &t, nil
}

// NBATeamID resolves an internal team ID to the upstream NBA team ID. This
// implements the upstream client's team directory contract.
func (db *DB) NBATeamID(ctx context.Context, teamID int) (int, error) {
	team, err := db.GetTeam(ctx, teamID)
	if err != nil {
		return 0, err
	}
	if team == nil {
		return 0, fmt.Errorf("team %d is not in the directory: %w", teamID, provider.ErrNotFound)
	}
	return team.NBATeamID, nil
}

// UpsertTeam inserts or updates a team keyed on its NBA team ID. Used by the
// seed command; the directory otherwise never changes at runtime.
func (db *DB) UpsertTeam(ctx context.Context, t Team) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO teams (nba_team_id, name, abbreviation, conference, division)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (nba_team_id) DO UPDATE
		 SET name = $2, abbreviation = $3, conference = $4, division = $5`,
		t.NBATeamID, t.Name, t.Abbreviation, t.Conference, t.Division,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert team %s: %w", t.Abbreviation, err)
	}
	return nil
}
