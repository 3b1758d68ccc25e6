package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

// Job is a named periodic task. Run receives the tick time.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context, now time.Time) (usecase.JobReport, error)
}

// Locker grants a cross-instance lease. acquired is false when another holder owns key.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}

// JobObserver receives the outcome of every job run.
type JobObserver interface {
	JobRun(job string, report usecase.JobReport, elapsed time.Duration, err error)
}

type scheduledJob struct {
	Job
	running atomic.Bool
}

// Scheduler drives jobs on independent tickers.
// A job runs only if its previous run in this process has finished and the lease was acquired.
type Scheduler struct {
	jobs     map[string]*scheduledJob
	order    []string
	locker   Locker
	observer JobObserver
	leaseTTL time.Duration
	now      usecase.Clock
	logger   *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewScheduler constructs a scheduler. Jobs with a non-positive interval are ignored.
func NewScheduler(jobs []Job, locker Locker, observer JobObserver, leaseTTL time.Duration, now usecase.Clock, logger *slog.Logger) *Scheduler {
	if now == nil {
		now = usecase.SystemClock
	}
	s := &Scheduler{
		jobs:     make(map[string]*scheduledJob, len(jobs)),
		locker:   locker,
		observer: observer,
		leaseTTL: leaseTTL,
		now:      now,
		logger:   logger,
	}
	for _, job := range jobs {
		if job.Interval <= 0 || job.Run == nil {
			logger.Warn("job disabled", slog.String("job", job.Name))
			continue
		}
		s.jobs[job.Name] = &scheduledJob{Job: job}
		s.order = append(s.order, job.Name)
	}
	return s
}

// Jobs lists the enabled job names.
func (s *Scheduler) Jobs() []string {
	return append([]string(nil), s.order...)
}

// Start launches one loop per job. Every job runs immediately, then on its interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, name := range s.order {
		job := s.jobs[name]
		s.wg.Add(1)
		go s.loop(runCtx, job)
	}
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.order)))
}

// Stop cancels the loops and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// loop runs job once at start, then on every tick.
func (s *Scheduler) loop(ctx context.Context, job *scheduledJob) {
	defer s.wg.Done()
	s.execute(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, job)
		}
	}
}

// RunNow triggers name immediately. ran is false when the job is unknown,
// still running, or the lease is held elsewhere.
func (s *Scheduler) RunNow(ctx context.Context, name string) (report usecase.JobReport, ran bool, err error) {
	job, ok := s.jobs[name]
	if !ok {
		return usecase.JobReport{}, false, nil
	}
	return s.execute(ctx, job)
}

func (s *Scheduler) execute(ctx context.Context, job *scheduledJob) (usecase.JobReport, bool, error) {
	if !job.running.CompareAndSwap(false, true) {
		s.logger.Debug("job still running, tick skipped", slog.String("job", job.Name))
		return usecase.JobReport{}, false, nil
	}
	defer job.running.Store(false)

	if s.locker != nil {
		release, acquired, err := s.locker.TryLock(ctx, "scheduler:"+job.Name, s.ttlFor(job))
		if err != nil {
			s.logger.Error("job lease failed", slog.String("job", job.Name), slog.String("error", err.Error()))
			return usecase.JobReport{}, false, err
		}
		if !acquired {
			s.logger.Debug("job lease held elsewhere", slog.String("job", job.Name))
			return usecase.JobReport{}, false, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("job lease release failed", slog.String("job", job.Name), slog.String("error", err.Error()))
			}
		}()
	}

	start := time.Now()
	report, err := job.Run(ctx, s.now())
	elapsed := time.Since(start)
	if s.observer != nil {
		s.observer.JobRun(job.Name, report, elapsed, err)
	}

	attrs := []any{
		slog.String("job", job.Name),
		slog.Duration("duration", elapsed),
		slog.Int("processed", report.Processed),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
	}
	if err != nil {
		s.logger.Error("job failed", append(attrs, slog.String("error", err.Error()))...)
		return report, true, err
	}
	s.logger.Info("job finished", attrs...)
	return report, true, nil
}

// ttlFor bounds the lease by the configured TTL, falling back to the job interval.
func (s *Scheduler) ttlFor(job *scheduledJob) time.Duration {
	if s.leaseTTL > 0 {
		return s.leaseTTL
	}
	return job.Interval
}
