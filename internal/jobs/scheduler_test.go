package jobs_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/serroba/likes-go/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingJob struct {
	runs    atomic.Int32
	active  atomic.Int32
	overlap atomic.Bool
	delay   time.Duration
	err     error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(_ context.Context) error {
	if j.active.Add(1) > 1 {
		j.overlap.Store(true)
	}
	defer j.active.Add(-1)

	j.runs.Add(1)
	time.Sleep(j.delay)

	return j.err
}

type panickingJob struct{ runs atomic.Int32 }

func (j *panickingJob) Name() string { return "panicking" }

func (j *panickingJob) Run(_ context.Context) error {
	j.runs.Add(1)
	panic("boom")
}

func TestScheduler_Every(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	assert.Error(t, s.Every(&countingJob{}, 0, false))
	assert.NoError(t, s.Every(&countingJob{}, time.Second, false))
}

func TestScheduler_RunsPeriodically(t *testing.T) {
	job := &countingJob{}
	s := jobs.NewScheduler(zap.NewNop())
	require.NoError(t, s.Every(job, 10*time.Millisecond, false))
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return job.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Shutdown())
}

func TestScheduler_RunOnStart(t *testing.T) {
	job := &countingJob{}
	s := jobs.NewScheduler(zap.NewNop())
	require.NoError(t, s.Every(job, time.Hour, true))
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Shutdown())
}

func TestScheduler_NoSelfOverlap(t *testing.T) {
	job := &countingJob{delay: 30 * time.Millisecond}
	s := jobs.NewScheduler(zap.NewNop())
	require.NoError(t, s.Every(job, 5*time.Millisecond, true))
	require.NoError(t, s.Start(context.Background()))

	time.Sleep(150 * time.Millisecond)
	require.NoError(t, s.Shutdown())

	assert.False(t, job.overlap.Load())
	assert.Less(t, job.runs.Load(), int32(10))
}

func TestScheduler_LogsFailuresAndKeepsRunning(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	failing := &countingJob{err: errors.New("tx failed")}
	panicking := &panickingJob{}

	s := jobs.NewScheduler(zap.New(core))
	require.NoError(t, s.Every(failing, 10*time.Millisecond, false))
	require.NoError(t, s.Every(panicking, 10*time.Millisecond, false))
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return failing.runs.Load() >= 2 && panicking.runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Shutdown())

	assert.NotZero(t, logs.FilterMessage("job failed").Len())
	assert.NotZero(t, logs.FilterMessage("job panicked").Len())
}

func TestScheduler_ShutdownWithoutStart(t *testing.T) {
	assert.NoError(t, jobs.NewScheduler(zap.NewNop()).Shutdown())
}
