package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/boxscore-backend/internal/provider"
)

var syncConcurrency int

var syncCmd = &cobra.Command{
	Use:   "sync [standings|games|rosters|all]",
	Short: "Force-refresh cached resources from upstream",
	Long:  `Resolve every team's resources of the given class with a forced refresh, fanning requests out over a bounded worker pool. Manual overrides are left untouched.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().IntVar(&syncConcurrency, "concurrency", 4, "Concurrent refreshes")
	rootCmd.AddCommand(syncCmd)
}

func runSync(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	class := args[0]
	switch class {
	case "standings", "games", "rosters", "all":
	default:
		return fmt.Errorf("unknown resource class %q", class)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	teams, err := a.teams.ListTeams(ctx)
	if err != nil {
		return fmt.Errorf("failed to list teams: %w", err)
	}
	if len(teams) == 0 {
		return fmt.Errorf("no teams in the directory; run seed-teams first")
	}

	var keys []string
	for _, team := range teams {
		if class == "standings" || class == "all" {
			keys = append(keys, provider.StandingsKey(team.ID, a.cfg.CurrentSeason, a.cfg.CurrentSeasonType).String())
		}
		if class == "games" || class == "all" {
			keys = append(keys, provider.GamesKey(team.ID, a.cfg.CurrentSeason, a.cfg.CurrentSeasonType).String())
		}
		if class == "rosters" || class == "all" {
			keys = append(keys, provider.RosterKey(team.ID, a.cfg.CurrentSeason).String())
		}
	}

	var refreshed, stale atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			res, err := a.resolver.Resolve(gctx, key, true)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if res.Stale {
				stale.Add(1)
			} else {
				refreshed.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("Refreshed %d resources (%d served stale)\n", refreshed.Load(), stale.Load())
	return nil
}
