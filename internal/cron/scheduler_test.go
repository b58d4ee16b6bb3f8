package cron

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/boxscore-backend/internal/db"
	"github.com/jonathan/boxscore-backend/internal/provider"
)

// recordedRun captures one CompleteCronRun call.
type recordedRun struct {
	JobName      string
	TriggeredBy  string
	Status       string
	ItemsUpdated int
	ErrorMessage string
}

// fakeRecorder is an in-memory RunRecorder.
type fakeRecorder struct {
	mu      sync.Mutex
	started map[uuid.UUID]recordedRun
	runs    []recordedRun
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{started: make(map[uuid.UUID]recordedRun)}
}

func (f *fakeRecorder) CreateCronRun(_ context.Context, jobName, triggeredBy string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.started[id] = recordedRun{JobName: jobName, TriggeredBy: triggeredBy}
	return id, nil
}

func (f *fakeRecorder) CompleteCronRun(_ context.Context, runID uuid.UUID, status string, itemsUpdated int, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := f.started[runID]
	run.Status = status
	run.ItemsUpdated = itemsUpdated
	run.ErrorMessage = errMsg
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRecorder) completed() []recordedRun {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRun(nil), f.runs...)
}

func TestScheduler_RunNow(t *testing.T) {
	recorder := newFakeRecorder()
	s := NewScheduler(recorder)

	ran := 0
	s.Register(Job{
		Name:     "refresh-standings",
		Interval: time.Hour,
		Run: func(context.Context) (int, error) {
			ran++
			return 7, nil
		},
	})

	require.NoError(t, s.RunNow(context.Background(), "refresh-standings"))
	assert.Equal(t, 1, ran)

	runs := recorder.completed()
	require.Len(t, runs, 1)
	assert.Equal(t, "refresh-standings", runs[0].JobName)
	assert.Equal(t, "manual", runs[0].TriggeredBy)
	assert.Equal(t, db.RunStatusSuccess, runs[0].Status)
	assert.Equal(t, 7, runs[0].ItemsUpdated)
}

func TestScheduler_RunNow_UnknownJob(t *testing.T) {
	s := NewScheduler(newFakeRecorder())
	err := s.RunNow(context.Background(), "no-such-job")
	assert.Error(t, err)
}

func TestScheduler_FailureRecorded(t *testing.T) {
	recorder := newFakeRecorder()
	s := NewScheduler(recorder)

	s.Register(Job{
		Name:     "refresh-games",
		Interval: time.Hour,
		Run: func(context.Context) (int, error) {
			return 2, fmt.Errorf("upstream exploded")
		},
	})

	err := s.RunNow(context.Background(), "refresh-games")
	require.Error(t, err)

	runs := recorder.completed()
	require.Len(t, runs, 1)
	assert.Equal(t, db.RunStatusFailed, runs[0].Status)
	assert.Equal(t, 2, runs[0].ItemsUpdated)
	assert.Contains(t, runs[0].ErrorMessage, "upstream exploded")
}

func TestScheduler_TickerRuns(t *testing.T) {
	recorder := newFakeRecorder()
	s := NewScheduler(recorder)

	done := make(chan struct{})
	var once sync.Once
	s.Register(Job{
		Name:     "tick",
		Interval: 20 * time.Millisecond,
		Run: func(context.Context) (int, error) {
			once.Do(func() { close(done) })
			return 1, nil
		},
	})

	s.Start()
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran on its interval")
	}

	s.Stop()

	runs := recorder.completed()
	require.NotEmpty(t, runs)
	assert.Equal(t, "cron", runs[0].TriggeredBy)
}

func TestScheduler_JobNames(t *testing.T) {
	s := NewScheduler(nil)
	s.Register(Job{Name: "a", Interval: time.Hour, Run: func(context.Context) (int, error) { return 0, nil }})
	s.Register(Job{Name: "b", Interval: time.Hour, Run: func(context.Context) (int, error) { return 0, nil }})
	assert.Equal(t, []string{"a", "b"}, s.JobNames())
}

func TestScheduler_JobTimeout(t *testing.T) {
	s := NewScheduler(newFakeRecorder())
	s.Register(Job{
		Name:     "slow",
		Interval: time.Hour,
		Timeout:  10 * time.Millisecond,
		Run: func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
	})

	err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// fakeRefresher serves canned results per key.
type fakeRefresher struct {
	mu      sync.Mutex
	results map[string]provider.Result
	errs    map[string]error
	calls   []string
	forced  bool
}

func (f *fakeRefresher) Resolve(_ context.Context, key string, forceRefresh bool) (provider.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	f.forced = forceRefresh
	if err, ok := f.errs[key]; ok {
		return provider.Result{}, err
	}
	return f.results[key], nil
}

type staticTeams []db.Team

func (s staticTeams) ListTeams(context.Context) ([]db.Team, error) {
	return s, nil
}

func TestRefreshStandingsJob(t *testing.T) {
	teams := staticTeams{{ID: 1}, {ID: 2}, {ID: 3}}
	refresher := &fakeRefresher{
		results: map[string]provider.Result{
			"team:1:standings:2025-26:Regular Season": {Record: &provider.Record{Source: provider.SourceAPI}},
			"team:2:standings:2025-26:Regular Season": {Record: &provider.Record{Source: provider.SourceManual, ManualOverride: true}},
			"team:3:standings:2025-26:Regular Season": {Record: &provider.Record{Source: provider.SourceAPI}},
		},
	}

	job := RefreshStandingsJob(refresher, teams, "2025-26", "Regular Season")
	assert.Equal(t, "refresh-standings", job.Name)
	assert.Equal(t, provider.TTLStandings, job.Interval)

	updated, err := job.Run(context.Background())
	require.NoError(t, err)

	// The overridden team is skipped, the other two count.
	assert.Equal(t, 2, updated)
	assert.Len(t, refresher.calls, 3)
	assert.True(t, refresher.forced)
}

func TestRefreshGamesJob_PartialFailure(t *testing.T) {
	teams := staticTeams{{ID: 1}, {ID: 2}}
	refresher := &fakeRefresher{
		results: map[string]provider.Result{
			"team:1:games:2025-26:Regular Season": {Record: &provider.Record{Source: provider.SourceAPI}},
		},
		errs: map[string]error{
			"team:2:games:2025-26:Regular Season": fmt.Errorf("key: %w", provider.ErrUnavailable),
		},
	}

	job := RefreshGamesJob(refresher, teams, "2025-26", "Regular Season")
	updated, err := job.Run(context.Background())

	assert.Equal(t, 1, updated)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 refreshes failed")
}

func TestRefreshRostersJob_StaleServeCountsAsFailure(t *testing.T) {
	teams := staticTeams{{ID: 1}}
	refresher := &fakeRefresher{
		results: map[string]provider.Result{
			"team:1:roster:2025-26": {Stale: true, Record: &provider.Record{Source: provider.SourceAPI}},
		},
	}

	job := RefreshRostersJob(refresher, teams, "2025-26")
	updated, err := job.Run(context.Background())

	assert.Zero(t, updated)
	assert.Error(t, err)
}
