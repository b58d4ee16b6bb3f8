package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/boxscore-backend/internal/db"
)

var seedTeamsCmd = &cobra.Command{
	Use:   "seed-teams",
	Short: "Load the team directory from upstream into the database",
	Long:  `Fetch the franchise list from the upstream stats API and upsert it into the teams table. Safe to re-run; rows are keyed on the NBA team ID.`,
	RunE:  runSeedTeams,
}

func init() {
	rootCmd.AddCommand(seedTeamsCmd)
}

func runSeedTeams(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.database == nil {
		return fmt.Errorf("seed-teams requires DATABASE_URL to be set")
	}

	teams, err := a.client.ListTeams(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch teams from upstream: %w", err)
	}

	for _, t := range teams {
		err := a.database.UpsertTeam(ctx, db.Team{
			NBATeamID:    t.NBATeamID,
			Name:         t.Name,
			Abbreviation: t.Abbreviation,
			Conference:   t.Conference,
			Division:     t.Division,
		})
		if err != nil {
			return err
		}
	}

	fmt.Printf("Seeded %d teams\n", len(teams))
	return nil
}
