package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jonathan/boxscore-backend/internal/config"
	"github.com/jonathan/boxscore-backend/internal/cron"
	"github.com/jonathan/boxscore-backend/internal/db"
	"github.com/jonathan/boxscore-backend/internal/nba"
	"github.com/jonathan/boxscore-backend/internal/provider"
)

// app holds the wired collaborators shared by the commands.
type app struct {
	cfg      *config.Config
	client   *nba.Client
	database *db.DB // nil when running without a database
	store    provider.OverrideStore
	teams    teamDirectory
	resolver *provider.Resolver
}

// teamDirectory is the union of the team lookups the server, the jobs, and
// the upstream source need.
type teamDirectory interface {
	ListTeams(ctx context.Context) ([]db.Team, error)
	GetTeam(ctx context.Context, id int) (*db.Team, error)
	GetTeamByAbbreviation(ctx context.Context, abbr string) (*db.Team, error)
	NBATeamID(ctx context.Context, teamID int) (int, error)
}

// newApp loads configuration and wires the resolver stack. Without
// DATABASE_URL it degrades to an in-memory cache and a team directory
// fetched from upstream at startup.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	client, err := nba.NewClient(&nba.Options{
		BaseURL: cfg.NBAAPIBaseURL,
		APIKey:  cfg.NBAAPIKey,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, client: client}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Init(ctx); err != nil {
			database.Close()
			return nil, err
		}
		a.database = database
		a.store = database.Cache()
		a.teams = database
	} else {
		log.Println("DATABASE_URL not set, using in-memory cache")
		a.store = provider.NewMemstore()
		teams, err := loadMemTeams(ctx, client)
		if err != nil {
			return nil, err
		}
		a.teams = teams
	}

	a.resolver = provider.NewResolver(a.store, nba.NewSource(client, a.teams))
	return a, nil
}

// Close releases the database pool if one was opened.
func (a *app) Close() {
	if a.database != nil {
		a.database.Close()
	}
}

// recorder returns the run recorder backing the job scheduler.
func (a *app) recorder() cron.RunRecorder {
	if a.database != nil {
		return a.database
	}
	return cron.NopRecorder{}
}

// memTeams is an in-memory team directory loaded from upstream at startup.
type memTeams struct {
	teams []db.Team
}

func loadMemTeams(ctx context.Context, client *nba.Client) (*memTeams, error) {
	upstream, err := client.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load team directory from upstream: %w", err)
	}

	m := &memTeams{teams: make([]db.Team, len(upstream))}
	for i, t := range upstream {
		m.teams[i] = db.Team{
			ID:           i + 1,
			NBATeamID:    t.NBATeamID,
			Name:         t.Name,
			Abbreviation: t.Abbreviation,
			Conference:   t.Conference,
			Division:     t.Division,
		}
	}
	return m, nil
}

func (m *memTeams) ListTeams(context.Context) ([]db.Team, error) {
	return m.teams, nil
}

func (m *memTeams) GetTeam(_ context.Context, id int) (*db.Team, error) {
	for i := range m.teams {
		if m.teams[i].ID == id {
			return &m.teams[i], nil
		}
	}
	return nil, nil
}

func (m *memTeams) GetTeamByAbbreviation(_ context.Context, abbr string) (*db.Team, error) {
	for i := range m.teams {
		if strings.EqualFold(m.teams[i].Abbreviation, abbr) {
			return &m.teams[i], nil
		}
	}
	return nil, nil
}

func (m *memTeams) NBATeamID(ctx context.Context, teamID int) (int, error) {
	team, err := m.GetTeam(ctx, teamID)
	if err != nil {
		return 0, err
	}
	if team == nil {
		return 0, fmt.Errorf("team %d is not in the directory: %w", teamID, provider.ErrNotFound)
	}
	return team.NBATeamID, nil
}
