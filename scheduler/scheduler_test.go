package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ad_insight_agent/config"
	"ad_insight_agent/models"
)

type blockingRunner struct {
	mu      sync.Mutex
	calls   []string
	release chan struct{}
	started chan struct{}
}

func (r *blockingRunner) Run(_ context.Context, task, dateStart, dateEnd string) models.PipelineRunResult {
	r.mu.Lock()
	r.calls = append(r.calls, task+"|"+dateStart+"|"+dateEnd)
	r.mu.Unlock()
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	return models.PipelineRunResult{RunID: "run-1", Verified: true}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Scheduler.Cron = "0 9 * * *"
	cfg.Scheduler.Task = "每日巡檢"
	cfg.Scheduler.LookbackDays = 7
	return cfg
}

func TestLookbackWindow(t *testing.T) {
	now := time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)
	start, end := LookbackWindow(now, 7)
	assert.Equal(t, "2024-03-01", start)
	assert.Equal(t, "2024-03-07", end)

	start, end = LookbackWindow(time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC), 1)
	assert.Equal(t, "2024-02-29", start)
	assert.Equal(t, "2024-02-29", end)
}

func TestNewScheduler_InvalidCron(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.Cron = "every morning"
	_, err := NewScheduler(cfg, &blockingRunner{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every morning")
}

func TestScheduler_RunOnceUsesWindow(t *testing.T) {
	runner := &blockingRunner{}
	s, err := NewScheduler(testConfig(), runner)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC) }

	res, ran := s.RunOnce(context.Background())
	require.True(t, ran)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, []string{"每日巡檢|2024-03-01|2024-03-07"}, runner.calls)

	status := s.Status()
	assert.False(t, status.IsRunning)
	assert.True(t, status.LastOK)
	assert.Equal(t, "run-1", status.LastRunID)
	assert.Equal(t, time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC), status.NextRun)
}

func TestScheduler_SkipsWhileRunning(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{}), started: make(chan struct{}, 1)}
	s, err := NewScheduler(testConfig(), runner)
	require.NoError(t, err)

	done := make(chan bool)
	go func() {
		_, ran := s.RunOnce(context.Background())
		done <- ran
	}()
	<-runner.started

	_, ran := s.RunOnce(context.Background())
	assert.False(t, ran)

	close(runner.release)
	assert.True(t, <-done)
	assert.Len(t, runner.calls, 1)
}
