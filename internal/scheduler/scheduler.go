package scheduler

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// JobType represents the different cleanup jobs
type JobType int

const (
	JobTypeLookups JobType = iota
	JobTypeReports
)

// String returns the string representation of a JobType
func (j JobType) String() string {
	switch j {
	case JobTypeLookups:
		return "lookups"
	case JobTypeReports:
		return "reports"
	default:
		return "unknown"
	}
}

// Purger deletes expired records.
type Purger interface {
	PurgeLookups(before time.Time) (int64, error)
	PurgeJobs(before time.Time) (int64, error)
}

// Options sets how often cleanup runs and how long records are kept.
type Options struct {
	Interval  time.Duration
	LookupTTL time.Duration
	JobTTL    time.Duration
}

// Scheduler periodically removes expired lookups and finished job records
type Scheduler struct {
	store    Purger
	opts     Options
	logger   *logrus.Logger
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	jobMutex sync.Mutex // Ensures sequential job execution
}

// NewScheduler creates a new scheduler
func NewScheduler(store Purger, opts Options, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}

	return &Scheduler{
		store:    store,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start runs the cleanup once and then on every interval
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	s.RunOnce()

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce executes every cleanup job whose TTL is set and returns the number
// of removed records per job.
func (s *Scheduler) RunOnce() map[JobType]int64 {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	removed := make(map[JobType]int64)
	now := s.now()
	if s.opts.LookupTTL > 0 {
		s.run(JobTypeLookups, removed, func() (int64, error) {
			return s.store.PurgeLookups(now.Add(-s.opts.LookupTTL))
		})
	}
	if s.opts.JobTTL > 0 {
		s.run(JobTypeReports, removed, func() (int64, error) {
			return s.store.PurgeJobs(now.Add(-s.opts.JobTTL))
		})
	}
	return removed
}

func (s *Scheduler) run(job JobType, removed map[JobType]int64, fn func() (int64, error)) {
	n, err := fn()
	if err != nil {
		s.logger.WithError(err).WithField("job_type", job.String()).Error("Cleanup job failed")
		return
	}
	removed[job] = n
	if n > 0 {
		s.logger.WithFields(logrus.Fields{
			"job_type": job.String(),
			"removed":  n,
		}).Info("Cleanup job completed")
	}
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}
