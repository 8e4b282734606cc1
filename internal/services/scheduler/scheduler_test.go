package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestRegisterJob_RejectsInvalidSchedule(t *testing.T) {
	s := NewService("")
	err := s.RegisterJob("bad", "not a cron expr", func() error { return nil })
	require.Error(t, err)
}

func TestRegisterJob_RejectsDuplicateName(t *testing.T) {
	s := NewService("")
	require.NoError(t, s.RegisterJob("crawl", "*/5 * * * *", func() error { return nil }))
	err := s.RegisterJob("crawl", "*/10 * * * *", func() error { return nil })
	require.Error(t, err)
}

func TestStartStop(t *testing.T) {
	s := NewService("")
	assert.False(t, s.IsRunning())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	require.Error(t, s.Start(), "double start is rejected")

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop(), "stopping twice is a no-op")
}

func TestTriggerNow_RunsHandler(t *testing.T) {
	s := NewService("")

	var calls atomic.Int32
	require.NoError(t, s.RegisterJob("crawl", "0 0 * * *", func() error {
		calls.Add(1)
		return nil
	}))

	require.NoError(t, s.TriggerNow("crawl"))
	waitFor(t, time.Second, func() bool { return calls.Load() == 1 })

	status, err := s.GetJobStatus("crawl")
	require.NoError(t, err)
	assert.NotNil(t, status.LastRun)
	assert.Empty(t, status.LastError)
}

func TestTriggerNow_UnknownJob(t *testing.T) {
	s := NewService("")
	require.Error(t, s.TriggerNow("missing"))
}

func TestTriggerNow_RejectsWhileRunning(t *testing.T) {
	s := NewService("")

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, s.RegisterJob("slow", "0 0 * * *", func() error {
		close(started)
		<-release
		return nil
	}))

	require.NoError(t, s.TriggerNow("slow"))
	<-started

	err := s.TriggerNow("slow")
	require.Error(t, err)
	close(release)
}

func TestJobFailure_RecordedInStatus(t *testing.T) {
	s := NewService("")

	var calls atomic.Int32
	require.NoError(t, s.RegisterJob("flaky", "0 0 * * *", func() error {
		calls.Add(1)
		return errors.New("upstream down")
	}))

	require.NoError(t, s.TriggerNow("flaky"))
	waitFor(t, time.Second, func() bool { return calls.Load() == 1 })
	waitFor(t, time.Second, func() bool {
		status, err := s.GetJobStatus("flaky")
		return err == nil && status.LastError != ""
	})

	status, err := s.GetJobStatus("flaky")
	require.NoError(t, err)
	assert.Equal(t, "upstream down", status.LastError)
}

func TestPanicInHandler_DoesNotKillScheduler(t *testing.T) {
	s := NewService("")

	require.NoError(t, s.RegisterJob("panics", "0 0 * * *", func() error {
		panic("boom")
	}))
	require.NoError(t, s.TriggerNow("panics"))

	waitFor(t, time.Second, func() bool {
		status, err := s.GetJobStatus("panics")
		return err == nil && status.LastError != "" && !status.IsRunning
	})

	status, err := s.GetJobStatus("panics")
	require.NoError(t, err)
	assert.Contains(t, status.LastError, "panic")
}

func TestEnableDisable(t *testing.T) {
	s := NewService("Asia/Seoul")
	require.NoError(t, s.RegisterJob("crawl", "*/5 * * * *", func() error { return nil }))
	require.NoError(t, s.Start())
	defer s.Stop()

	status, err := s.GetJobStatus("crawl")
	require.NoError(t, err)
	assert.True(t, status.Enabled)
	assert.NotNil(t, status.NextRun)

	require.NoError(t, s.DisableJob("crawl"))
	status, err = s.GetJobStatus("crawl")
	require.NoError(t, err)
	assert.False(t, status.Enabled)
	assert.Nil(t, status.NextRun)

	require.NoError(t, s.EnableJob("crawl"))
	status, err = s.GetJobStatus("crawl")
	require.NoError(t, err)
	assert.True(t, status.Enabled)
}

func TestGetAllJobStatuses(t *testing.T) {
	s := NewService("")
	require.NoError(t, s.RegisterJob("crawl", "*/5 * * * *", func() error { return nil }))
	require.NoError(t, s.RegisterJob("report", "0 18 * * *", func() error { return nil }))

	statuses := s.GetAllJobStatuses()
	assert.Len(t, statuses, 2)
	assert.Contains(t, statuses, "crawl")
	assert.Contains(t, statuses, "report")
}
