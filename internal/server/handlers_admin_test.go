package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/boxscore-backend/internal/db"
	"github.com/jonathan/boxscore-backend/internal/provider"
)

// fakeAdmins is an in-memory AdminStore.
type fakeAdmins struct {
	admins map[string]*db.AdminUser
}

func (f *fakeAdmins) GetAdminByEmail(_ context.Context, email string) (*db.AdminUser, error) {
	return f.admins[strings.ToLower(email)], nil
}

func newFakeAdmins(t *testing.T, email, password string) *fakeAdmins {
	t.Helper()

	hash, err := testAuthConfig().HashPassword(password)
	require.NoError(t, err)

	return &fakeAdmins{admins: map[string]*db.AdminUser{
		strings.ToLower(email): {
			ID:           uuid.New(),
			Email:        strings.ToLower(email),
			PasswordHash: hash,
			CreatedAt:    time.Now(),
		},
	}}
}

// fakeJobs records manual triggers.
type fakeJobs struct {
	names []string
	ran   []string
	err   error
}

func (f *fakeJobs) JobNames() []string { return f.names }

func (f *fakeJobs) RunNow(_ context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.ran = append(f.ran, name)
	return nil
}

// fakeRuns serves canned run history.
type fakeRuns struct {
	runs []db.CronRun
}

func (f *fakeRuns) ListCronRuns(_ context.Context, jobName string, limit int) ([]db.CronRun, error) {
	if jobName == "" {
		return f.runs, nil
	}
	var out []db.CronRun
	for _, r := range f.runs {
		if r.JobName == jobName {
			out = append(out, r)
		}
	}
	return out, nil
}

func authHeader(t *testing.T, s *Server) string {
	t.Helper()
	token, err := s.jwtService.IssueToken(testAdmin())
	require.NoError(t, err)
	return "Bearer " + token
}

func adminDeps(t *testing.T) Deps {
	return Deps{
		Resolver:  newFakeResolver(),
		Overrides: provider.NewMemstore(),
		Teams:     &fakeTeams{teams: sampleTeams()},
		Admins:    newFakeAdmins(t, "admin@example.com", "hunter2hunter2"),
		Jobs:      &fakeJobs{names: []string{"refresh-standings", "refresh-games", "refresh-rosters"}},
		Runs:      &fakeRuns{},
	}
}

func TestHandleLogin(t *testing.T) {
	s := newTestServer(t, adminDeps(t))

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"success", `{"email":"admin@example.com","password":"hunter2hunter2"}`, http.StatusOK},
		{"wrong password", `{"email":"admin@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"ghost@example.com","password":"hunter2hunter2"}`, http.StatusUnauthorized},
		{"invalid email", `{"email":"not-an-email","password":"x"}`, http.StatusBadRequest},
		{"missing password", `{"email":"admin@example.com"}`, http.StatusBadRequest},
		{"malformed body", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(tt.body))
			rr := doRequest(s, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestHandleLogin_TokenIsValid(t *testing.T) {
	s := newTestServer(t, adminDeps(t))

	req := httptest.NewRequest(http.MethodPost, "/admin/login",
		strings.NewReader(`{"email":"admin@example.com","password":"hunter2hunter2"}`))
	rr := doRequest(s, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)

	claims, err := s.jwtService.ValidateToken(body.Token)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, claims.AdminID)
	assert.Equal(t, "admin@example.com", claims.Email)
}

func TestHandleLogin_NoAdminStore(t *testing.T) {
	deps := adminDeps(t)
	deps.Admins = nil
	s := newTestServer(t, deps)

	req := httptest.NewRequest(http.MethodPost, "/admin/login",
		strings.NewReader(`{"email":"admin@example.com","password":"hunter2hunter2"}`))
	rr := doRequest(s, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, adminDeps(t))

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPut, "/admin/overrides/team:1:standings:2025-26:Regular%20Season"},
		{http.MethodDelete, "/admin/overrides/team:1:standings:2025-26:Regular%20Season"},
		{http.MethodGet, "/admin/metrics"},
		{http.MethodGet, "/admin/jobs"},
		{http.MethodPost, "/admin/jobs/refresh-games/run"},
		{http.MethodGet, "/admin/jobs/runs"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rr := doRequest(s, httptest.NewRequest(p.method, p.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestHandleSetOverride(t *testing.T) {
	deps := adminDeps(t)
	store := provider.NewMemstore()
	deps.Overrides = store
	s := newTestServer(t, deps)
	token := authHeader(t, s)

	key := "team:1:standings:2025-26:Regular Season"
	body := `{"payload":{"wins":50,"losses":10,"conference_rank":1},"reason":"stats corrected after league review"}`

	req := httptest.NewRequest(http.MethodPut, "/admin/overrides/"+url.PathEscape(key), strings.NewReader(body))
	req.Header.Set("Authorization", token)
	rr := doRequest(s, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rec, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.ManualOverride)
	assert.Equal(t, provider.SourceManual, rec.Source)
	assert.Equal(t, "stats corrected after league review", rec.OverrideReason)
}

func TestHandleSetOverride_Rejections(t *testing.T) {
	s := newTestServer(t, adminDeps(t))
	token := authHeader(t, s)

	key := "team:1:standings:2025-26:Regular Season"

	tests := []struct {
		name string
		path string
		body string
	}{
		{"invalid key", "/admin/overrides/not-a-key", `{"payload":{"wins":1,"losses":0,"conference_rank":1},"reason":"sample reason"}`},
		{"malformed body", "/admin/overrides/" + url.PathEscape(key), `{`},
		{"missing reason", "/admin/overrides/" + url.PathEscape(key), `{"payload":{"wins":1,"losses":0,"conference_rank":1}}`},
		{"schema violation", "/admin/overrides/" + url.PathEscape(key), `{"payload":{"wins":-5},"reason":"sample reason"}`},
		{"unknown payload field", "/admin/overrides/" + url.PathEscape(key), `{"payload":{"wins":1,"losses":0,"conference_rank":1,"bogus":true},"reason":"sample reason"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Authorization", token)
			rr := doRequest(s, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}
}

func TestHandleClearOverride(t *testing.T) {
	deps := adminDeps(t)
	store := provider.NewMemstore()
	deps.Overrides = store
	s := newTestServer(t, deps)
	token := authHeader(t, s)

	key := "team:1:standings:2025-26:Regular Season"
	_, err := store.SetOverride(context.Background(), key, json.RawMessage(`{"wins":1}`), "test")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/admin/overrides/"+url.PathEscape(key), nil)
	req.Header.Set("Authorization", token)
	rr := doRequest(s, req)
	require.Equal(t, http.StatusOK, rr.Code)

	rec, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.ManualOverride)

	// Clearing a key with no record is a 404.
	req = httptest.NewRequest(http.MethodDelete, "/admin/overrides/team:9:roster:2025-26", nil)
	req.Header.Set("Authorization", token)
	rr = doRequest(s, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleMetrics(t *testing.T) {
	deps := adminDeps(t)
	resolver := newFakeResolver()
	deps.Resolver = resolver
	s := newTestServer(t, deps)
	token := authHeader(t, s)

	req := httptest.NewRequest(http.MethodGet, "/admin/metrics", nil)
	req.Header.Set("Authorization", token)
	rr := doRequest(s, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var snap provider.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Zero(t, snap.TotalRequests)

	req = httptest.NewRequest(http.MethodPost, "/admin/metrics/reset", nil)
	req.Header.Set("Authorization", token)
	rr = doRequest(s, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHandleRunJob(t *testing.T) {
	deps := adminDeps(t)
	jobs := &fakeJobs{names: []string{"refresh-standings"}}
	deps.Jobs = jobs
	s := newTestServer(t, deps)
	token := authHeader(t, s)

	req := httptest.NewRequest(http.MethodPost, "/admin/jobs/refresh-standings/run", nil)
	req.Header.Set("Authorization", token)
	rr := doRequest(s, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"refresh-standings"}, jobs.ran)

	req = httptest.NewRequest(http.MethodPost, "/admin/jobs/no-such-job/run", nil)
	req.Header.Set("Authorization", token)
	rr = doRequest(s, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleRunJob_Failure(t *testing.T) {
	deps := adminDeps(t)
	deps.Jobs = &fakeJobs{names: []string{"refresh-games"}, err: fmt.Errorf("upstream exploded")}
	s := newTestServer(t, deps)
	token := authHeader(t, s)

	req := httptest.NewRequest(http.MethodPost, "/admin/jobs/refresh-games/run", nil)
	req.Header.Set("Authorization", token)
	rr := doRequest(s, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHandleListJobRuns(t *testing.T) {
	deps := adminDeps(t)
	now := time.Now()
	deps.Runs = &fakeRuns{runs: []db.CronRun{
		{ID: uuid.New(), JobName: "refresh-games", TriggeredBy: "cron", StartedAt: now, Status: db.RunStatusSuccess},
		{ID: uuid.New(), JobName: "refresh-standings", TriggeredBy: "manual", StartedAt: now, Status: db.RunStatusFailed},
	}}
	s := newTestServer(t, deps)
	token := authHeader(t, s)

	req := httptest.NewRequest(http.MethodGet, "/admin/jobs/runs?job=refresh-games", nil)
	req.Header.Set("Authorization", token)
	rr := doRequest(s, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Runs  []db.CronRun `json:"runs"`
		Count int          `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "refresh-games", body.Runs[0].JobName)
}
