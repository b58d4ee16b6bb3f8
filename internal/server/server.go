// Package server provides the HTTP REST API for the boxscore backend.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/boxscore-backend/internal/config"
	"github.com/jonathan/boxscore-backend/internal/db"
	"github.com/jonathan/boxscore-backend/internal/provider"
	"github.com/jonathan/boxscore-backend/internal/server/middleware"
	"github.com/jonathan/boxscore-backend/internal/server/ratelimit"
)

// Resolver resolves resource keys to payloads, refreshing from upstream as
// needed. *provider.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, key string, forceRefresh bool) (provider.Result, error)
	Metrics() *provider.Metrics
}

// TeamDirectory is the subset of the database used for team lookups.
type TeamDirectory interface {
	ListTeams(ctx context.Context) ([]db.Team, error)
	GetTeam(ctx context.Context, id int) (*db.Team, error)
	GetTeamByAbbreviation(ctx context.Context, abbr string) (*db.Team, error)
}

// RunStore lists recorded job executions.
type RunStore interface {
	ListCronRuns(ctx context.Context, jobName string, limit int) ([]db.CronRun, error)
}

// JobRunner exposes the registered refresh jobs for listing and manual runs.
type JobRunner interface {
	JobNames() []string
	RunNow(ctx context.Context, name string) error
}

// Server represents the HTTP server
type Server struct {
	httpServer   *http.Server
	resolver     Resolver
	overrides    provider.OverrideStore
	teams        TeamDirectory
	runs         RunStore
	jobs         JobRunner
	season       string
	seasonType   string
	rateLimiter  *ratelimit.Limiter
	jwtService   *JWTService
	adminService *AdminService
	validator    *validator.Validate
}

// Config holds server configuration
type Config struct {
	Port              int
	CurrentSeason     string
	CurrentSeasonType string
}

// Deps holds the collaborators the server serves from. Teams and Resolver
// are required; Admins, Runs and Jobs may be nil when running without a
// database or scheduler.
type Deps struct {
	Resolver  Resolver
	Overrides provider.OverrideStore
	Teams     TeamDirectory
	Admins    AdminStore
	Runs      RunStore
	Jobs      JobRunner
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Resolver == nil || deps.Teams == nil || deps.Overrides == nil {
		return nil, fmt.Errorf("resolver, teams and overrides are required")
	}

	s := &Server{
		resolver:   deps.Resolver,
		overrides:  deps.Overrides,
		teams:      deps.Teams,
		runs:       deps.Runs,
		jobs:       deps.Jobs,
		season:     cfg.CurrentSeason,
		seasonType: cfg.CurrentSeasonType,
	}

	// Initialize rate limiter
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	s.validator = validator.New()

	// Initialize authentication services. Admin login is only available
	// when an admin store exists.
	authConfig, err := config.NewAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create auth config: %w", err)
	}
	s.jwtService = NewJWTService(authConfig)
	if deps.Admins != nil {
		s.adminService = NewAdminService(deps.Admins, authConfig)
	}

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// routes builds the router. Split out so tests can drive handlers without
// binding a port.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Team directory
	// Note: /teams/abbr/{abbr} would conflict with /teams/{id}/standings in
	// the Go 1.22+ ServeMux (both can match /teams/abbr/standings), so the
	// abbreviation lookup uses a query parameter instead.
	mux.HandleFunc("GET /teams", s.handleListTeams)
	mux.HandleFunc("GET /teams/by-abbr", s.handleGetTeamByAbbreviation)
	mux.HandleFunc("GET /teams/{id}", s.handleGetTeam)

	// Cached stats resources
	mux.HandleFunc("GET /teams/{id}/standings", s.handleTeamStandings)
	mux.HandleFunc("GET /teams/{id}/games", s.handleTeamGames)
	mux.HandleFunc("GET /teams/{id}/roster", s.handleTeamRoster)
	mux.HandleFunc("GET /players/{id}/averages", s.handlePlayerAverages)
	mux.HandleFunc("GET /games/{id}/boxscore", s.handleGameBoxscore)

	// Admin API
	mux.HandleFunc("POST /admin/login", s.handleLogin)

	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	mux.Handle("PUT /admin/overrides/{key}", auth(http.HandlerFunc(s.handleSetOverride)))
	mux.Handle("DELETE /admin/overrides/{key}", auth(http.HandlerFunc(s.handleClearOverride)))
	mux.Handle("GET /admin/metrics", auth(http.HandlerFunc(s.handleMetrics)))
	mux.Handle("POST /admin/metrics/reset", auth(http.HandlerFunc(s.handleMetricsReset)))
	mux.Handle("GET /admin/jobs", auth(http.HandlerFunc(s.handleListJobs)))
	mux.Handle("POST /admin/jobs/{name}/run", auth(http.HandlerFunc(s.handleRunJob)))
	mux.Handle("GET /admin/jobs/runs", auth(http.HandlerFunc(s.handleListJobRuns)))

	return mux
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method, wantsRefresh(r))

		if !allowed {
			s.setRateLimitHeaders(w, info)
			s.rateLimitResponse(w, info)
			return
		}

		s.setRateLimitHeaders(w, info)
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request.
// Uses the IP address from RemoteAddr; X-Forwarded-For handling belongs
// behind a trusted proxy and is intentionally absent here.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
