// Package scheduler runs the recurring attendance and device jobs on cron
// cadences. A job still running when its next tick fires is skipped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const DefaultJobTimeout = 30 * time.Minute

var ErrUnknownJob = errors.New("unknown job")

type Job struct {
	Name string
	// Spec is a standard five-field cron expression evaluated in UTC.
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

type EntryInfo struct {
	Name string    `json:"name"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next"`
	Prev time.Time `json:"prev"`
}

type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu        sync.Mutex
	base      context.Context
	jobs      map[string]Job
	entries   map[string]cron.EntryID
	onFailure func(ctx context.Context, job string, err error)
}

func New(logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger: logger.With("component", "cron")}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger.With("component", "scheduler"),
		base:    context.Background(),
		jobs:    make(map[string]Job),
		entries: make(map[string]cron.EntryID),
	}
}

// Register adds jobs to the schedule. A job with an empty spec is kept for
// RunNow but never scheduled.
func (s *Scheduler) Register(jobs ...Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range jobs {
		if _, ok := s.jobs[job.Name]; ok {
			return fmt.Errorf("job %q registered twice", job.Name)
		}
		if job.Timeout <= 0 {
			job.Timeout = DefaultJobTimeout
		}
		s.jobs[job.Name] = job
		if job.Spec == "" {
			continue
		}

		job := job
		id, err := s.cron.AddFunc(job.Spec, func() {
			_ = s.execute(s.baseContext(), job)
		})
		if err != nil {
			return fmt.Errorf("invalid schedule %q for job %q: %w", job.Spec, job.Name, err)
		}
		s.entries[job.Name] = id
	}
	return nil
}

// OnFailure installs a callback invoked after a job returns an error.
func (s *Scheduler) OnFailure(fn func(ctx context.Context, job string, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFailure = fn
}

// Start begins firing jobs. Jobs run under ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()

	s.cron.Start()
	for _, e := range s.Entries() {
		s.logger.Info("job scheduled", "job", e.Name, "spec", e.Spec, "next", e.Next)
	}
}

// Stop stops the schedule and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow runs a registered job synchronously, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, job)
}

func (s *Scheduler) Entries() []EntryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]EntryInfo, 0, len(s.entries))
	for name, id := range s.entries {
		e := s.cron.Entry(id)
		infos = append(infos, EntryInfo{Name: name, Spec: s.jobs[name].Spec, Next: e.Next, Prev: e.Prev})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (s *Scheduler) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	start := time.Now()
	s.logger.Info("job started", "job", job.Name)
	err := job.Run(ctx)
	if err != nil {
		s.logger.Error("job failed", "job", job.Name, "elapsed", time.Since(start), "error", err)
		s.mu.Lock()
		hook := s.onFailure
		s.mu.Unlock()
		if hook != nil {
			hook(context.WithoutCancel(ctx), job.Name, err)
		}
		return err
	}
	s.logger.Info("job completed", "job", job.Name, "elapsed", time.Since(start))
	return nil
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
