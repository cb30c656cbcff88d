package scheduler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis/v13/optimizer/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // 남은 실패 횟수
	calls    int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	atomic.AddInt32(&j.calls, 1)
	if atomic.AddInt32(&j.failures, -1) >= 0 {
		return errors.New("transient")
	}
	return nil
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(nil)

	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "@every 1h"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 0 * * * *"}))
	assert.Equal(t, []string{"a", "b"}, s.Jobs())

	err := s.AddJob(&fakeJob{name: "a", schedule: "@every 1h"})
	assert.ErrorContains(t, err, "already exists")

	err = s.AddJob(&fakeJob{name: "bad", schedule: "not a cron"})
	assert.ErrorContains(t, err, "failed to schedule job bad")
}

func TestScheduler_RemoveJob(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@every 1h"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.Jobs())
	assert.Error(t, s.RemoveJob("a"))
}

func TestScheduler_RunNowRetries(t *testing.T) {
	s := New(nil, WithRetry(2, time.Millisecond))
	job := &fakeJob{name: "flaky", schedule: "@every 1h", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunNow("flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Empty(t, result.Error)
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls))
}

func TestScheduler_RunNowExhausted(t *testing.T) {
	s := New(nil, WithRetry(1, time.Millisecond))
	require.NoError(t, s.AddJob(&fakeJob{name: "broken", schedule: "@every 1h", failures: 10}))

	result, err := s.RunNow("broken")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, "transient", result.Error)

	history, err := s.History("broken")
	require.NoError(t, err)
	require.Len(t, history, 1)

	stats := s.Stats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.False(t, stats.LastSuccess)
	require.NotNil(t, stats.LastRun)
}

func TestScheduler_RunNowUnknown(t *testing.T) {
	_, err := New(nil).RunNow("missing")
	assert.Error(t, err)

	_, err = New(nil).History("missing")
	assert.Error(t, err)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(nil)
	job := &fakeJob{name: "tick", schedule: "* * * * * *"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&job.calls) > 0 }, 3*time.Second, 20*time.Millisecond)
	s.Stop()

	history, err := s.History("tick")
	require.NoError(t, err)
	assert.NotEmpty(t, history)
	assert.NotNil(t, s.Stats()["tick"].NextRun)
}

func TestScheduler_RetryLogOnlyBeforeLastAttempt(t *testing.T) {
	var buf bytes.Buffer
	s := New(logger.NewWithWriter(&buf, "json", "debug", "test"), WithRetry(1, time.Millisecond))
	require.NoError(t, s.AddJob(&fakeJob{name: "broken", schedule: "@every 1h", failures: 10}))

	result, err := s.RunNow("broken")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 1, strings.Count(buf.String(), "retrying"))
	assert.Contains(t, buf.String(), "Job failed after all retries")
}

// blockingJob runs until its context is cancelled
type blockingJob struct {
	started chan struct{}
	once    sync.Once
	done    int32
}

func (j *blockingJob) Name() string     { return "block" }
func (j *blockingJob) Schedule() string { return "@every 1h" }

func (j *blockingJob) Run(ctx context.Context) error {
	j.once.Do(func() { close(j.started) })
	<-ctx.Done()
	atomic.StoreInt32(&j.done, 1)
	return ctx.Err()
}

func TestScheduler_StopWaitsForRunNow(t *testing.T) {
	s := New(nil, WithRetry(0, time.Millisecond))
	job := &blockingJob{started: make(chan struct{})}
	require.NoError(t, s.AddJob(job))

	go s.RunNow("block")
	<-job.started

	s.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.done), "Stop returns only after the running job")

	_, err := s.RunNow("block")
	assert.ErrorIs(t, err, ErrStopped)
	s.Stop()
}

func TestScheduler_RunNowConcurrentWithStop(t *testing.T) {
	s := New(nil, WithRetry(0, time.Millisecond))
	require.NoError(t, s.AddJob(&fakeJob{name: "p", schedule: "@every 1h"}))

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.RunNow("p")
			if err != nil {
				assert.ErrorIs(t, err, ErrStopped)
			}
		}()
	}
	s.Stop()
	wg.Wait()

	_, err := s.RunNow("p")
	assert.ErrorIs(t, err, ErrStopped)
}

func TestJobHistory(t *testing.T) {
	var h JobHistory
	_, ok := h.Latest()
	assert.False(t, ok)
	assert.Equal(t, 0.0, h.SuccessRate())

	for i := 0; i < historyLimit+5; i++ {
		h.AddResult(JobResult{Success: i%2 == 0, Attempts: i})
	}
	assert.Len(t, h.Results, historyLimit)

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, historyLimit+4, latest.Attempts)
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)
	assert.Equal(t, historyLimit/2, h.Failures())
}
