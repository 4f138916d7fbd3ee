package scheduler

import (
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPurger struct {
	mock.Mock
}

func (m *MockPurger) PurgeLookups(before time.Time) (int64, error) {
	args := m.Called(before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurger) PurgeJobs(before time.Time) (int64, error) {
	args := m.Called(before)
	return args.Get(0).(int64), args.Error(1)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestJobTypeString(t *testing.T) {
	assert.Equal(t, "lookups", JobTypeLookups.String())
	assert.Equal(t, "reports", JobTypeReports.String())
	assert.Equal(t, "unknown", JobType(9).String())
}

func TestScheduler_RunOnce(t *testing.T) {
	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	store := &MockPurger{}
	store.On("PurgeLookups", now.Add(-720*time.Hour)).Return(int64(3), nil).Once()
	store.On("PurgeJobs", now.Add(-24*time.Hour)).Return(int64(0), errors.New("locked")).Once()

	s := NewScheduler(store, Options{LookupTTL: 720 * time.Hour, JobTTL: 24 * time.Hour}, quietLogger())
	s.now = func() time.Time { return now }

	removed := s.RunOnce()
	assert.Equal(t, map[JobType]int64{JobTypeLookups: 3}, removed)
	store.AssertExpectations(t)
}

func TestScheduler_RunOnceSkipsDisabledJobs(t *testing.T) {
	store := &MockPurger{}
	s := NewScheduler(store, Options{}, quietLogger())
	assert.Empty(t, s.RunOnce())
	store.AssertNotCalled(t, "PurgeLookups", mock.Anything)
	store.AssertNotCalled(t, "PurgeJobs", mock.Anything)
}

func TestScheduler_StartStop(t *testing.T) {
	var runs atomic.Int32
	store := &MockPurger{}
	store.On("PurgeLookups", mock.Anything).Return(int64(0), nil).Run(func(mock.Arguments) { runs.Add(1) })

	s := NewScheduler(store, Options{Interval: 10 * time.Millisecond, LookupTTL: time.Hour}, quietLogger())
	s.Start()
	assert.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()
}
