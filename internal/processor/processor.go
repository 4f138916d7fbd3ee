package processor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"propertyreport/config"
	"propertyreport/internal/models"
	"propertyreport/internal/pipeline"
	"propertyreport/internal/queue"
)

// Generator builds a report and writes it to a file.
type Generator interface {
	Build(in models.ReportInput) (*pipeline.Result, error)
	WriteFile(res *pipeline.Result, outPath string) error
}

// JobStore persists job records.
type JobStore interface {
	SaveJob(job *models.ReportJob) error
	GetJob(id string) (*models.ReportJob, error)
}

// Processor runs queued report jobs on a pool of workers. Each report is
// built once; retries only repeat the file write, never the generation pass.
type Processor struct {
	store     JobStore
	generator Generator
	logger    *logrus.Logger
	config    *config.Config
	queue     *queue.JobQueue
	waitGroup sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewProcessor creates a new processor instance
func NewProcessor(store JobStore, generator Generator, queue *queue.JobQueue, config *config.Config, logger *logrus.Logger) *Processor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		store:     store,
		generator: generator,
		queue:     queue,
		config:    config,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins processing jobs from the queue
func (p *Processor) Start() {
	workers := p.config.Jobs.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.waitGroup.Add(1)
		go p.processLoop()
	}
}

// Stop stops accepting jobs, lets the workers finish the queued ones and
// waits for them.
func (p *Processor) Stop() {
	p.queue.Close()
	p.waitGroup.Wait()
	p.cancel()
}

// Submit records a queued job and hands it to the workers.
func (p *Processor) Submit(in models.ReportInput, outPath string) (*models.ReportJob, error) {
	if err := pipeline.Validate(in); err != nil {
		return nil, err
	}

	record := &models.ReportJob{
		ID:      uuid.NewString(),
		Address: strings.TrimSpace(in.Property.Address),
		Status:  models.JobQueued,
	}
	if err := p.store.SaveJob(record); err != nil {
		return nil, err
	}

	if err := p.queue.Push(&queue.Job{ID: record.ID, Input: in, OutPath: outPath}); err != nil {
		record.Status = models.JobFailed
		record.Error = err.Error()
		if saveErr := p.store.SaveJob(record); saveErr != nil {
			p.logger.WithError(saveErr).WithField("job_id", record.ID).Error("Failed to record rejected job")
		}
		return nil, fmt.Errorf("failed to queue job: %w", err)
	}

	p.logger.WithFields(logrus.Fields{"job_id": record.ID, "address": record.Address}).Info("Report job queued")
	return record, nil
}

// processLoop takes jobs until the queue is closed and drained
func (p *Processor) processLoop() {
	defer p.waitGroup.Done()

	for {
		job, ok := p.queue.Next(p.ctx)
		if !ok {
			return
		}
		if err := p.processJob(job); err != nil {
			p.logger.WithError(err).WithField("job_id", job.ID).Error("Report job failed")
		}
	}
}

// processJob builds one report and writes it, retrying failed writes
func (p *Processor) processJob(job *queue.Job) error {
	record, err := p.store.GetJob(job.ID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	record.Status = models.JobRunning
	record.Attempts++
	p.save(record)

	res, err := p.generator.Build(job.Input)
	if err != nil {
		return p.fail(record, err)
	}

	maxRetries := p.config.Jobs.MaxRetries
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying report write for job %s, attempt %d of %d", job.ID, attempt, maxRetries)
			if !p.sleep(time.Duration(p.config.Jobs.RetryDelay) * time.Second) {
				break
			}
			record.Attempts++
		}

		err = p.generator.WriteFile(res, job.OutPath)
		if err == nil {
			break
		}
		p.logger.WithError(err).WithField("job_id", job.ID).Warn("Report write attempt failed")
	}
	if err != nil {
		return p.fail(record, err)
	}

	record.Status = models.JobSucceeded
	record.Error = ""
	record.Path = res.Path
	record.Pages = res.Pages
	record.Bytes = res.Bytes
	record.Placeholders = res.Placeholder
	record.Degraded = res.Metrics.Degraded
	p.save(record)

	p.logger.WithFields(logrus.Fields{"job_id": job.ID, "path": res.Path}).Info("Report job completed")
	return nil
}

func (p *Processor) fail(record *models.ReportJob, err error) error {
	record.Status = models.JobFailed
	record.Error = err.Error()
	p.save(record)
	return fmt.Errorf("failed to process job after %d attempts: %w", record.Attempts, err)
}

func (p *Processor) save(record *models.ReportJob) {
	if err := p.store.SaveJob(record); err != nil {
		p.logger.WithError(err).WithField("job_id", record.ID).Error("Failed to save job")
	}
}

func (p *Processor) sleep(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-p.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
