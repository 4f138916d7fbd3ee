package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"propertyreport/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Job is one queued report generation.
type Job struct {
	ID      string
	Input   models.ReportInput
	OutPath string
}

// JobQueue is a bounded in-memory queue of report jobs
type JobQueue struct {
	items   chan *Job
	maxSize int
	closed  bool
	mu      sync.RWMutex
	logger  *logrus.Logger
}

// NewJobQueue creates a queue holding at most bufferSize waiting jobs
func NewJobQueue(bufferSize int, logger *logrus.Logger) *JobQueue {
	if bufferSize < 1 {
		bufferSize = 1
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &JobQueue{
		items:   make(chan *Job, bufferSize),
		maxSize: bufferSize,
		logger:  logger,
	}
}

// Push adds a job without blocking
func (q *JobQueue) Push(job *Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- job:
		q.logger.WithField("job_id", job.ID).Debug("Pushed job to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Next blocks until a job is available. It returns false once the queue is
// closed and drained, or when ctx is done.
func (q *JobQueue) Next(ctx context.Context) (*Job, bool) {
	select {
	case <-ctx.Done():
		return nil, false
	case job, ok := <-q.items:
		return job, ok
	}
}

// Close stops accepting jobs. Jobs already queued can still be taken.
func (q *JobQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.items)
	return nil
}

// Len returns the current number of waiting jobs
func (q *JobQueue) Len() int {
	return len(q.items)
}

// Cap returns the maximum number of waiting jobs
func (q *JobQueue) Cap() int {
	return q.maxSize
}

// IsClosed returns whether the queue has been closed
func (q *JobQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
