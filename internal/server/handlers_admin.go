package server

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/boxscore-backend/internal/provider"
	"github.com/jonathan/boxscore-backend/internal/schemas"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type overrideRequest struct {
	Payload json.RawMessage `json:"payload" validate:"required"`
	Reason  string          `json:"reason" validate:"required,min=3,max=500"`
}

// handleLogin authenticates an admin and issues a JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.adminService == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Admin API requires a database")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.validator.Struct(req); err != nil {
		verr := asValidationError(err)
		s.errorResponse(w, HTTPStatus(verr), verr.Error())
		return
	}

	admin, err := s.adminService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	token, err := s.jwtService.IssueToken(admin)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"token": token,
		"admin": admin,
	})
}

// handleSetOverride stores a manual payload for a resource key. The payload
// must validate against the key's resource class schema.
func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	k, err := provider.ParseKey(key)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.validator.Struct(req); err != nil {
		verr := asValidationError(err)
		s.errorResponse(w, HTTPStatus(verr), verr.Error())
		return
	}

	if err := schemas.ValidateOverride(k.Class, req.Payload); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	rec, err := s.overrides.SetOverride(r.Context(), key, req.Payload, req.Reason)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"record": rec,
	})
}

// handleClearOverride removes a manual override, reverting the key to
// normal freshness behavior.
func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if _, err := provider.ParseKey(key); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.overrides.ClearOverride(r.Context(), key)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"record": rec,
	})
}

// handleMetrics returns resolver counters.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.resolver.Metrics().Snapshot())
}

// handleMetricsReset zeroes resolver counters.
func (s *Server) handleMetricsReset(w http.ResponseWriter, r *http.Request) {
	s.resolver.Metrics().Reset()
	s.jsonResponse(w, http.StatusOK, s.resolver.Metrics().Snapshot())
}

// handleListJobs lists the registered refresh jobs.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "No job scheduler configured")
		return
	}

	names := s.jobs.JobNames()
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"jobs":  names,
		"count": len(names),
	})
}

// handleRunJob triggers one job immediately.
func (s *Server) handleRunJob(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "No job scheduler configured")
		return
	}

	name := r.PathValue("name")
	if !slices.Contains(s.jobs.JobNames(), name) {
		err := &ErrUnknownJob{Name: name}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	if err := s.jobs.RunNow(r.Context(), name); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "completed",
		"job":    name,
	})
}

// handleListJobRuns lists recorded job executions, newest first.
func (s *Server) handleListJobRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Job history requires a database")
		return
	}

	jobName := r.URL.Query().Get("job")
	limit := parseQueryInt(r, "limit", 20, 100)

	runs, err := s.runs.ListCronRuns(r.Context(), jobName, limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// parseQueryInt parses an integer query parameter with default and max values
func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return defaultValue
	}
	if maxValue > 0 && val > maxValue {
		return maxValue
	}
	return val
}

// asValidationError converts validator errors into the API's *ErrValidation.
// Only the first field error is reported.
func asValidationError(err error) *ErrValidation {
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "request", Message: "invalid"}
}
