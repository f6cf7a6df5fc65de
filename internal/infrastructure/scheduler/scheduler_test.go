package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	name string
	runs int
	err  error
}

func (j *fakeJob) Name() string        { return j.name }
func (j *fakeJob) Description() string { return "test job" }

func (j *fakeJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func newTestScheduler() *Scheduler {
	cfg := DefaultSchedulerConfig()
	return NewScheduler(cfg)
}

func TestRegister_RejectsDuplicates(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "archive-transcript"}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	err := s.Register(job, NewIntervalSchedule(time.Hour))
	assert.ErrorIs(t, err, ErrJobAlreadyExists)
}

func TestRegister_RejectsNilJobAndSchedule(t *testing.T) {
	s := newTestScheduler()

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&fakeJob{name: "j"}, nil), ErrNilSchedule)
}

func TestRunNow_ExecutesAndRecordsResult(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "archive-transcript"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "archive-transcript")
	require.NoError(t, err)

	assert.Equal(t, 1, job.runs)
	assert.True(t, result.Success)
	assert.Equal(t, "archive-transcript", result.JobName)

	snap := s.GetMetrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalExecutions)
	assert.Equal(t, int64(1), snap.TotalSuccesses)
}

func TestRunNow_PropagatesJobError(t *testing.T) {
	s := newTestScheduler()
	jobErr := errors.New("database unavailable")
	job := &fakeJob{name: "archive-transcript", err: jobErr}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	result, err := s.RunNow(context.Background(), "archive-transcript")
	assert.ErrorIs(t, err, jobErr)
	assert.False(t, result.Success)

	snap := s.GetMetrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalFailures)
}

func TestRunNow_UnknownJob(t *testing.T) {
	s := newTestScheduler()

	_, err := s.RunNow(context.Background(), "no-such-job")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestStartStop_Lifecycle(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Register(&fakeJob{name: "j"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestDisableJob_SkipsScheduling(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Register(&fakeJob{name: "j"}, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.DisableJob("j"))

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.False(t, infos[0].Enabled)

	require.NoError(t, s.EnableJob("j"))
	infos = s.ListJobs()
	assert.True(t, infos[0].Enabled)
}

func TestIntervalSchedule_Next(t *testing.T) {
	sched := NewIntervalSchedule(30 * time.Minute)
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, base.Add(30*time.Minute), sched.Next(base))
	assert.Equal(t, "@every 30m0s", sched.String())
}

func TestParseCronExpression_Valid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"every minute", EveryMinute},
		{"every 15 minutes", Every15Minutes},
		{"hourly", EveryHour},
		{"daily at 3am", EveryDay3AM},
		{"list", "0,30 * * * *"},
		{"range", "0 9-17 * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce, err := ParseCronExpression(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, ce.String())
		})
	}
}

func TestParseCronExpression_Invalid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"too few fields", "* * *"},
		{"minute out of range", "60 * * * *"},
		{"garbage", "a b c d e"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCronExpression(tt.expr)
			assert.Error(t, err)
		})
	}
}

func TestCronExpression_Next(t *testing.T) {
	ce := MustParseCronExpression("0 3 * * *")

	// 2025-03-10 12:00 UTC -> next 03:00 is the following day.
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	next := ce.Next(base)

	assert.Equal(t, time.Date(2025, 3, 11, 3, 0, 0, 0, time.UTC), next)
}

func TestCronExpression_NextStep(t *testing.T) {
	ce := MustParseCronExpression("*/15 * * * *")

	base := time.Date(2025, 3, 10, 12, 7, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 10, 12, 15, 0, 0, time.UTC), ce.Next(base))
}
