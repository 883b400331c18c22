// Package scheduler runs background generation jobs on a bounded worker
// pool. Submission never blocks the caller.
package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Kind tags a job for logging and metrics.
type Kind int

const (
	KindGrid Kind = iota
	KindHierarchy
)

func (k Kind) String() string {
	switch k {
	case KindGrid:
		return "grid"
	case KindHierarchy:
		return "hierarchy"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Job is one unit of background work.
type Job struct {
	Kind Kind
	// Name identifies the target in logs, usually an octree address.
	Name string
	Run  func()
	// Failed runs after Run panicked, so the owner can reset its state.
	Failed func(err error)
}

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("scheduler: closed")

// Options configures a Scheduler.
type Options struct {
	Workers int
	// Registerer receives the scheduler metrics. Nil skips registration.
	Registerer prometheus.Registerer
	Logger     *zap.Logger
}

// Scheduler is a fixed-size pool of workers.
type Scheduler struct {
	pool    pond.Pool
	log     *zap.Logger
	metrics *metrics

	mu       sync.RWMutex
	inflight sync.WaitGroup
	closed   bool
}

// New starts a scheduler.
func New(opts Options) (*Scheduler, error) {
	if opts.Workers < 1 {
		return nil, fmt.Errorf("scheduler: workers must be positive, got %d", opts.Workers)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := newMetrics()
	if opts.Registerer != nil {
		if err := m.register(opts.Registerer); err != nil {
			return nil, fmt.Errorf("scheduler: register metrics: %w", err)
		}
	}
	log.Info("Scheduler started", zap.Int("workers", opts.Workers))
	return &Scheduler{
		pool:    pond.NewPool(opts.Workers),
		log:     log,
		metrics: m,
	}, nil
}

// Submit queues a job and returns immediately.
func (s *Scheduler) Submit(job Job) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	s.inflight.Add(1)
	s.metrics.submitted.WithLabelValues(job.Kind.String()).Inc()
	s.metrics.queued.Inc()
	s.pool.Submit(func() {
		defer s.inflight.Done()
		s.metrics.queued.Dec()
		s.run(job)
	})
	return nil
}

func (s *Scheduler) run(job Job) {
	kind := job.Kind.String()
	start := time.Now()
	defer func() {
		s.metrics.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		r := recover()
		if r == nil {
			s.metrics.completed.WithLabelValues(kind).Inc()
			return
		}
		err := fmt.Errorf("scheduler: %s job %s panicked: %v", kind, job.Name, r)
		s.metrics.failed.WithLabelValues(kind).Inc()
		s.log.Error("Job failed",
			zap.String("kind", kind),
			zap.String("target", job.Name),
			zap.Any("panic", r))
		if job.Failed != nil {
			job.Failed(err)
		}
	}()
	job.Run()
}

// Discard records that a finished job's result was thrown away.
func (s *Scheduler) Discard(kind Kind) {
	s.metrics.discarded.WithLabelValues(kind.String()).Inc()
}

// Wait blocks until every submitted job has finished.
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

// Pending returns the number of jobs queued but not yet started.
func (s *Scheduler) Pending() int {
	return int(s.pool.WaitingTasks())
}

// Running returns the number of busy workers.
func (s *Scheduler) Running() int {
	return int(s.pool.RunningWorkers())
}

// Completed returns the number of jobs the pool has finished.
func (s *Scheduler) Completed() uint64 {
	return s.pool.CompletedTasks()
}

// Close stops accepting jobs and waits for the queued ones to finish.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.pool.StopAndWait()
	s.log.Info("Scheduler stopped", zap.Uint64("completed", s.pool.CompletedTasks()))
}
