package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/test"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

var tick = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type lockerStub struct {
	mu       sync.Mutex
	held     map[string]bool
	released []string
	err      error
}

func (l *lockerStub) TryLock(_ context.Context, key string, _ time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[key] {
		return nil, false, nil
	}
	return func(context.Context) error {
		l.mu.Lock()
		l.released = append(l.released, key)
		l.mu.Unlock()
		return nil
	}, true, nil
}

type observerStub struct {
	mu   sync.Mutex
	runs map[string][]usecase.JobReport
	errs int
}

func (o *observerStub) JobRun(job string, report usecase.JobReport, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.runs == nil {
		o.runs = make(map[string][]usecase.JobReport)
	}
	o.runs[job] = append(o.runs[job], report)
	if err != nil {
		o.errs++
	}
}

func TestNewSchedulerSkipsDisabledJobs(t *testing.T) {
	noop := func(context.Context, time.Time) (usecase.JobReport, error) { return usecase.JobReport{}, nil }
	s := NewScheduler([]Job{
		{Name: "enabled", Interval: time.Minute, Run: noop},
		{Name: "zero", Interval: 0, Run: noop},
		{Name: "nil-run", Interval: time.Minute},
	}, nil, nil, 0, nil, discardLogger())

	assert.Equal(t, []string{"enabled"}, s.Jobs())
	_, ran, err := s.RunNow(context.Background(), "zero")
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestRunNowPassesClockAndReportsOutcome(t *testing.T) {
	clock := test.NewManualClock(tick)
	locker := &lockerStub{}
	observer := &observerStub{}
	var seen time.Time
	s := NewScheduler([]Job{{
		Name:     "count",
		Interval: time.Hour,
		Run: func(_ context.Context, now time.Time) (usecase.JobReport, error) {
			seen = now
			return usecase.JobReport{Processed: 3, Succeeded: 2, Skipped: 1}, nil
		},
	}}, locker, observer, time.Minute, clock.Now, discardLogger())

	report, ran, err := s.RunNow(context.Background(), "count")
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, tick, seen)
	assert.Equal(t, usecase.JobReport{Processed: 3, Succeeded: 2, Skipped: 1}, report)
	assert.Equal(t, []usecase.JobReport{report}, observer.runs["count"])
	assert.Equal(t, []string{"scheduler:count"}, locker.released)
}

func TestRunNowIsSingleFlight(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	var calls atomic.Int32
	s := NewScheduler([]Job{{
		Name:     "slow",
		Interval: time.Hour,
		Run: func(context.Context, time.Time) (usecase.JobReport, error) {
			calls.Add(1)
			close(started)
			<-unblock
			return usecase.JobReport{}, nil
		},
	}}, nil, nil, 0, nil, discardLogger())

	done := make(chan bool)
	go func() {
		_, ran, _ := s.RunNow(context.Background(), "slow")
		done <- ran
	}()
	<-started

	_, ran, err := s.RunNow(context.Background(), "slow")
	require.NoError(t, err)
	assert.False(t, ran, "overlapping run must be skipped")

	close(unblock)
	assert.True(t, <-done)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunNowRespectsLease(t *testing.T) {
	var calls atomic.Int32
	run := func(context.Context, time.Time) (usecase.JobReport, error) {
		calls.Add(1)
		return usecase.JobReport{}, nil
	}
	locker := &lockerStub{held: map[string]bool{"scheduler:leased": true}}
	s := NewScheduler([]Job{{Name: "leased", Interval: time.Hour, Run: run}}, locker, nil, 0, nil, discardLogger())

	_, ran, err := s.RunNow(context.Background(), "leased")
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Zero(t, calls.Load())

	locker.err = errors.New("redis down")
	_, ran, err = s.RunNow(context.Background(), "leased")
	require.Error(t, err)
	assert.False(t, ran)
	assert.Zero(t, calls.Load())
}

func TestRunNowReportsJobError(t *testing.T) {
	observer := &observerStub{}
	s := NewScheduler([]Job{{
		Name:     "broken",
		Interval: time.Hour,
		Run: func(context.Context, time.Time) (usecase.JobReport, error) {
			return usecase.JobReport{Processed: 1, Failed: 1}, errors.New("boom")
		},
	}}, nil, observer, 0, nil, discardLogger())

	report, ran, err := s.RunNow(context.Background(), "broken")
	require.EqualError(t, err, "boom")
	assert.True(t, ran)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, observer.errs)
}

func TestSchedulerTicksUntilStopped(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler([]Job{{
		Name:     "fast",
		Interval: 5 * time.Millisecond,
		Run: func(context.Context, time.Time) (usecase.JobReport, error) {
			calls.Add(1)
			return usecase.JobReport{}, nil
		},
	}}, &lockerStub{}, nil, 0, nil, discardLogger())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	stopped := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load())
}

func TestSchedulerRunsJobsOnStart(t *testing.T) {
	clock := test.NewManualClock(tick)
	ran := make(chan time.Time, 1)
	s := NewScheduler([]Job{{
		Name:     "daily",
		Interval: 24 * time.Hour,
		Run: func(_ context.Context, now time.Time) (usecase.JobReport, error) {
			ran <- now
			return usecase.JobReport{}, nil
		},
	}}, &lockerStub{}, nil, 0, clock.Now, discardLogger())

	s.Start(context.Background())
	defer s.Stop()

	select {
	case now := <-ran:
		assert.Equal(t, tick, now)
	case <-time.After(time.Second):
		t.Fatal("expected the job to run without waiting for its first interval")
	}
}

func TestReconciliationJobs(t *testing.T) {
	schedule := DefaultSchedule()
	jobs := ReconciliationJobs(&usecase.ReconciliationUseCase{}, schedule)

	names := make([]string, 0, len(jobs))
	for _, job := range jobs {
		names = append(names, job.Name)
		assert.NotNil(t, job.Run)
		assert.Positive(t, job.Interval)
	}
	assert.Equal(t, []string{
		JobShipmentPolling, JobAutoConfirm, JobAutoConfirmWarning, JobDeadlineReminders, JobOfferExpiry,
	}, names)
	assert.Equal(t, 6*time.Hour, jobs[0].Interval)
	assert.Equal(t, time.Hour, jobs[4].Interval)
}
