package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorpulse/pkg/logger"
)

// countingJob fails the first failures runs, then succeeds
type countingJob struct {
	name     string
	schedule string
	failures int32
	runs     atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := j.runs.Add(1)
	if n <= j.failures {
		return errors.New("upstream unavailable")
	}
	return nil
}

func newTestScheduler(t *testing.T, retries int) *Scheduler {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	s := New(Config{Location: loc, MaxRetries: retries, RetryDelay: time.Millisecond}, logger.Nop())
	t.Cleanup(s.Stop)
	return s
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler(t, 0)

	require.NoError(t, s.AddJob(&countingJob{name: "snap", schedule: "0 46 9 * * 1-5"}))
	assert.Error(t, s.AddJob(&countingJob{name: "snap", schedule: "0 46 9 * * 1-5"}), "duplicate name")
	assert.Error(t, s.AddJob(&countingJob{name: "bad", schedule: "46 9 * * 1-5"}), "five fields rejected")

	assert.Equal(t, []string{"snap"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler(t, 0)
	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "@daily"}))
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}))
	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))

	_, err := s.NextRun("a")
	assert.Error(t, err)
}

func TestNextRun_ExchangeZone(t *testing.T) {
	s := newTestScheduler(t, 0)
	require.NoError(t, s.AddJob(&countingJob{name: "snap", schedule: "0 46 9 * * 1-5"}))

	next, err := s.NextRun("snap")
	require.NoError(t, err)

	loc, _ := time.LoadLocation("America/New_York")
	local := next.In(loc)
	assert.Equal(t, 9, local.Hour())
	assert.Equal(t, 46, local.Minute())
	assert.NotEqual(t, time.Saturday, local.Weekday())
	assert.NotEqual(t, time.Sunday, local.Weekday())
	assert.True(t, next.After(time.Now()))
}

func TestRunJob_RecordsSuccess(t *testing.T) {
	s := newTestScheduler(t, 0)
	job := &countingJob{name: "snap", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("snap"))
	assert.Error(t, s.RunJob("missing"))

	assert.Eventually(t, func() bool {
		h, err := s.GetJobHistory("snap")
		return err == nil && len(h.Results) == 1
	}, time.Second, 5*time.Millisecond)

	h, err := s.GetJobHistory("snap")
	require.NoError(t, err)
	assert.True(t, h.Results[0].Success)
	assert.Empty(t, h.Results[0].Error)
}

func TestRunJob_RetriesThenSucceeds(t *testing.T) {
	s := newTestScheduler(t, 2)
	job := &countingJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("flaky"))

	assert.Eventually(t, func() bool {
		h, _ := s.GetJobHistory("flaky")
		return h != nil && len(h.Results) == 1
	}, time.Second, 5*time.Millisecond)

	h, _ := s.GetJobHistory("flaky")
	assert.True(t, h.Results[0].Success)
	assert.Equal(t, int32(3), job.runs.Load())
	assert.Equal(t, 3, h.Results[0].Attempts)
}

func TestRunJob_FailsAfterRetries(t *testing.T) {
	s := newTestScheduler(t, 1)
	job := &countingJob{name: "down", schedule: "@daily", failures: 10}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("down"))

	assert.Eventually(t, func() bool {
		h, _ := s.GetJobHistory("down")
		return h != nil && len(h.Results) == 1
	}, time.Second, 5*time.Millisecond)

	h, _ := s.GetJobHistory("down")
	assert.False(t, h.Results[0].Success)
	assert.Equal(t, "upstream unavailable", h.Results[0].Error)
	assert.Equal(t, int32(2), job.runs.Load())

	stats := s.GetJobStats()["down"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
	require.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(3))

	for i := 0; i < maxHistory+5; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)

	last, ok := h.Last()
	require.True(t, ok)
	assert.True(t, last.Success, "the final run (i = maxHistory+4) succeeded")
}

func TestRunJobNow(t *testing.T) {
	s := newTestScheduler(t, 1)
	job := &countingJob{name: "snap", schedule: "@daily", failures: 1}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobNow("snap")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "snap", result.JobName)
	assert.Equal(t, int32(2), job.runs.Load())

	h, _ := s.GetJobHistory("snap")
	assert.Len(t, h.Results, 1)

	_, err = s.RunJobNow("missing")
	assert.Error(t, err)
}
