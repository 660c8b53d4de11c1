package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nannyhub/internal/types"
)

type fakeJob struct {
	name     string
	schedule Schedule
	every    time.Duration
	runs     int
	err      error
}

func (j *fakeJob) Name() string { return j.name }

func (j *fakeJob) Schedule() Schedule { return j.schedule }

func (j *fakeJob) Every() time.Duration { return j.every }

func (j *fakeJob) Execute(ctx context.Context) error {
	j.runs++
	return j.err
}

// plainJob asks for the Interval schedule without providing a period.
type plainJob struct{}

func (plainJob) Name() string { return "plain" }

func (plainJob) Schedule() Schedule { return Interval }

func (plainJob) Execute(ctx context.Context) error { return nil }

func TestSchedulerService_AddJob(t *testing.T) {
	scheduler := NewSchedulerService()

	require.NoError(t, scheduler.AddJob(&fakeJob{name: "sweep", schedule: Interval, every: 5 * time.Minute}))
	require.NoError(t, scheduler.AddJob(&fakeJob{name: "nightly", schedule: Daily}))
	assert.Equal(t, 2, scheduler.GetJobCount())

	assert.Error(t, scheduler.AddJob(&fakeJob{name: "broken", schedule: Interval}))
	assert.Error(t, scheduler.AddJob(plainJob{}))
	assert.Equal(t, 2, scheduler.GetJobCount())
}

func TestSchedulerService_StartStop(t *testing.T) {
	ctx := context.Background()
	scheduler := NewSchedulerService()

	require.NoError(t, scheduler.Start(ctx))
	assert.False(t, scheduler.IsRunning(), "nothing to run without jobs")

	require.NoError(t, scheduler.AddJob(&fakeJob{name: "sweep", schedule: Interval, every: time.Hour}))
	require.NoError(t, scheduler.Start(ctx))
	assert.True(t, scheduler.IsRunning())

	require.NoError(t, scheduler.Stop(ctx))
	assert.False(t, scheduler.IsRunning())
}

func TestSchedulerService_RunJobByName(t *testing.T) {
	ctx := context.Background()
	scheduler := NewSchedulerService()

	failing := &fakeJob{name: "failing", schedule: Hourly, err: errors.New("db down")}
	sweep := &fakeJob{name: "sweep", schedule: Interval, every: time.Minute}
	require.NoError(t, scheduler.AddJob(sweep))
	require.NoError(t, scheduler.AddJob(failing))

	require.NoError(t, scheduler.RunJobByName(ctx, "sweep"))
	assert.Equal(t, 1, sweep.runs)

	assert.EqualError(t, scheduler.RunJobByName(ctx, "failing"), "db down")

	err := scheduler.RunJobByName(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
