package processor

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"propertyreport/config"
	"propertyreport/internal/database"
	"propertyreport/internal/finance"
	"propertyreport/internal/models"
	"propertyreport/internal/pipeline"
	"propertyreport/internal/queue"
)

// MockGenerator is a mock implementation of the Generator interface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Build(in models.ReportInput) (*pipeline.Result, error) {
	args := m.Called(in)
	res, _ := args.Get(0).(*pipeline.Result)
	return res, args.Error(1)
}

func (m *MockGenerator) WriteFile(res *pipeline.Result, outPath string) error {
	args := m.Called(res, outPath)
	return args.Error(0)
}

func setup(t *testing.T, queueSize, retries int) (*Processor, *MockGenerator, *database.Store, *queue.JobQueue) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := database.NewStore(database.MemoryPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{}
	cfg.Jobs.Workers = 2
	cfg.Jobs.MaxRetries = retries
	cfg.Jobs.RetryDelay = 0

	gen := &MockGenerator{}
	q := queue.NewJobQueue(queueSize, logger)
	return NewProcessor(store, gen, q, cfg, logger), gen, store, q
}

func input(address string) models.ReportInput {
	return models.ReportInput{Property: models.PropertyRecord{Address: address}}
}

func takeJob(t *testing.T, q *queue.JobQueue) *queue.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	job, ok := q.Next(ctx)
	require.True(t, ok)
	return job
}

func TestProcessor_Submit(t *testing.T) {
	p, _, store, q := setup(t, 1, 0)

	_, err := p.Submit(input(" "), "")
	assert.ErrorIs(t, err, pipeline.ErrMissingAddress)

	job, err := p.Submit(input("5, Ridley Road"), "out")
	require.NoError(t, err)
	assert.Equal(t, models.JobQueued, job.Status)
	assert.Equal(t, 1, q.Len())

	// the queue holds one job
	_, err = p.Submit(input("1 High St"), "out")
	assert.ErrorIs(t, err, queue.ErrQueueFull)

	jobs, err := store.ListJobs(0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	statuses := []models.JobStatus{jobs[0].Status, jobs[1].Status}
	assert.ElementsMatch(t, []models.JobStatus{models.JobQueued, models.JobFailed}, statuses)
}

func TestProcessor_ProcessJob(t *testing.T) {
	tests := []struct {
		name         string
		retries      int
		buildErr     error
		writes       []error
		wantStatus   models.JobStatus
		wantAttempts int
	}{
		{name: "first attempt", retries: 2, writes: []error{nil}, wantStatus: models.JobSucceeded, wantAttempts: 1},
		{name: "succeeds on retry", retries: 2, writes: []error{errors.New("disk full"), errors.New("disk full"), nil},
			wantStatus: models.JobSucceeded, wantAttempts: 3},
		{name: "retries exhausted", retries: 1, writes: []error{errors.New("disk full"), errors.New("disk full")},
			wantStatus: models.JobFailed, wantAttempts: 2},
		{name: "build failure is not retried", retries: 3,
			buildErr:   &pipeline.ValidationError{Field: "address", Err: pipeline.ErrMissingAddress},
			wantStatus: models.JobFailed, wantAttempts: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, gen, store, q := setup(t, 4, tt.retries)
			in := input("5, Ridley Road")

			built := &pipeline.Result{
				Path: "out/report.pdf", Pages: 8, Bytes: 1024, Placeholder: 1,
				Metrics: finance.Metrics{Degraded: true},
			}
			if tt.buildErr != nil {
				gen.On("Build", in).Return(nil, tt.buildErr).Once()
			} else {
				gen.On("Build", in).Return(built, nil).Once()
			}
			for _, werr := range tt.writes {
				gen.On("WriteFile", built, "out").Return(werr).Once()
			}

			submitted, err := p.Submit(in, "out")
			require.NoError(t, err)

			err = p.processJob(takeJob(t, q))
			if tt.wantStatus == models.JobFailed {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			got, err := store.GetJob(submitted.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantAttempts, got.Attempts)
			if tt.wantStatus == models.JobSucceeded {
				assert.Equal(t, "out/report.pdf", got.Path)
				assert.Equal(t, 8, got.Pages)
				assert.Equal(t, 1, got.Placeholders)
				assert.True(t, got.Degraded)
				assert.Empty(t, got.Error)
			} else {
				assert.NotEmpty(t, got.Error)
			}
			gen.AssertExpectations(t)
			gen.AssertNumberOfCalls(t, "Build", 1)
			gen.AssertNumberOfCalls(t, "WriteFile", len(tt.writes))
		})
	}
}

func TestProcessor_StartStop(t *testing.T) {
	p, gen, store, _ := setup(t, 8, 0)
	gen.On("Build", mock.Anything).Return(&pipeline.Result{Path: "out/x.pdf", Pages: 7}, nil)
	gen.On("WriteFile", mock.Anything, "out").Return(nil)

	p.Start()
	var ids []string
	for _, addr := range []string{"1 High St", "2 High St", "3 High St"} {
		job, err := p.Submit(input(addr), "out")
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}

	// Stop drains the queue before returning
	p.Stop()

	for _, id := range ids {
		job, err := store.GetJob(id)
		require.NoError(t, err)
		assert.Equal(t, models.JobSucceeded, job.Status)
	}
	gen.AssertNumberOfCalls(t, "Build", 3)
	gen.AssertNumberOfCalls(t, "WriteFile", 3)

	_, err := p.Submit(input("4 High St"), "out")
	assert.ErrorIs(t, err, queue.ErrQueueClosed)
}
