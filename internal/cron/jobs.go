package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/boxscore-backend/internal/db"
	"github.com/jonathan/boxscore-backend/internal/provider"
)

// Refresher is the resolver surface the jobs drive. Jobs always force a
// refresh; the resolver still lets manual overrides win, which is how
// overridden records get skipped.
type Refresher interface {
	Resolve(ctx context.Context, key string, forceRefresh bool) (provider.Result, error)
}

// TeamLister enumerates the teams whose resources the jobs refresh.
type TeamLister interface {
	ListTeams(ctx context.Context) ([]db.Team, error)
}

// refreshTeams resolves one key per team with forceRefresh set. Overridden
// and stale-served records do not count as updates. Individual failures do
// not stop the sweep.
func refreshTeams(ctx context.Context, resolver Refresher, teams TeamLister, keyFor func(teamID int) string) (int, error) {
	list, err := teams.ListTeams(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list teams: %w", err)
	}

	updated := 0
	failed := 0
	for _, team := range list {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		res, err := resolver.Resolve(ctx, keyFor(team.ID), true)
		switch {
		case err != nil:
			failed++
		case res.Stale:
			failed++
		case res.Record != nil && res.Record.ManualOverride:
			// Skipped, the manual payload stays authoritative.
		default:
			updated++
		}
	}

	if failed > 0 {
		return updated, fmt.Errorf("%d of %d refreshes failed", failed, len(list))
	}
	return updated, nil
}

// RefreshStandingsJob refreshes every team's standings.
func RefreshStandingsJob(resolver Refresher, teams TeamLister, season, seasonType string) Job {
	return Job{
		Name:     "refresh-standings",
		Interval: provider.TTLStandings,
		Timeout:  5 * time.Minute,
		Run: func(ctx context.Context) (int, error) {
			return refreshTeams(ctx, resolver, teams, func(teamID int) string {
				return provider.StandingsKey(teamID, season, seasonType).String()
			})
		},
	}
}

// RefreshGamesJob refreshes every team's game list.
func RefreshGamesJob(resolver Refresher, teams TeamLister, season, seasonType string) Job {
	return Job{
		Name:     "refresh-games",
		Interval: provider.TTLGames,
		Timeout:  10 * time.Minute,
		Run: func(ctx context.Context) (int, error) {
			return refreshTeams(ctx, resolver, teams, func(teamID int) string {
				return provider.GamesKey(teamID, season, seasonType).String()
			})
		},
	}
}

// RefreshRostersJob refreshes every team's roster.
func RefreshRostersJob(resolver Refresher, teams TeamLister, season string) Job {
	return Job{
		Name:     "refresh-rosters",
		Interval: provider.TTLRoster,
		Timeout:  10 * time.Minute,
		Run: func(ctx context.Context) (int, error) {
			return refreshTeams(ctx, resolver, teams, func(teamID int) string {
				return provider.RosterKey(teamID, season).String()
			})
		},
	}
}
