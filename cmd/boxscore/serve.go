package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/boxscore-backend/internal/cron"
	"github.com/jonathan/boxscore-backend/internal/server"
)

var (
	servePort   int
	serveNoJobs bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that serves cached NBA statistics, refreshing stale resources from upstream on demand and on a schedule.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: PORT env or 8080)")
	serveCmd.Flags().BoolVar(&serveNoJobs, "no-jobs", false, "Disable the background refresh jobs")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	port := a.cfg.Port
	if servePort != 0 {
		port = servePort
	}

	scheduler := cron.NewScheduler(a.recorder())
	scheduler.Register(cron.RefreshStandingsJob(a.resolver, a.teams, a.cfg.CurrentSeason, a.cfg.CurrentSeasonType))
	scheduler.Register(cron.RefreshGamesJob(a.resolver, a.teams, a.cfg.CurrentSeason, a.cfg.CurrentSeasonType))
	scheduler.Register(cron.RefreshRostersJob(a.resolver, a.teams, a.cfg.CurrentSeason))

	deps := server.Deps{
		Resolver:  a.resolver,
		Overrides: a.store,
		Teams:     a.teams,
		Jobs:      scheduler,
	}
	if a.database != nil {
		deps.Admins = a.database
		deps.Runs = a.database
	}

	srv, err := server.New(server.Config{
		Port:              port,
		CurrentSeason:     a.cfg.CurrentSeason,
		CurrentSeasonType: a.cfg.CurrentSeasonType,
	}, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if !serveNoJobs {
		scheduler.Start()
		defer scheduler.Stop()
	}

	return srv.Start()
}
