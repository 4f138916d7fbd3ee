// Package database keeps the lookup cache and the background job records in
// a sqlite file through gorm.
package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"propertyreport/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

type Store struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewStore opens (creating if needed) the sqlite database at path and
// migrates the schema.
func NewStore(path string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer; an in-memory database exists per connection
	sqlDB.SetMaxOpenConns(1)

	if err := MigrateSchema(db); err != nil {
		sqlDB.Close()
		return nil, err
	}
	logger.WithField("path", path).Debug("Database ready")
	return &Store{db: db, logger: logger}, nil
}

// MigrateSchema creates or updates the tables.
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.LookupCacheEntry{}, &models.ReportJob{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetLookup returns the cached payload for key.
func (s *Store) GetLookup(key string) ([]byte, bool, error) {
	var entry models.LookupCacheEntry
	err := s.db.Where(&models.LookupCacheEntry{Key: key}).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read lookup cache: %w", err)
	}
	return entry.Payload, true, nil
}

// PutLookup stores or replaces the payload for key.
func (s *Store) PutLookup(key, query string, payload []byte) error {
	entry := models.LookupCacheEntry{Key: key, Query: query, Payload: payload, CreatedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"query", "payload", "created_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write lookup cache: %w", err)
	}
	return nil
}

// PurgeLookups deletes cache entries created before the cutoff.
func (s *Store) PurgeLookups(before time.Time) (int64, error) {
	res := s.db.Where("created_at < ?", before).Delete(&models.LookupCacheEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge lookup cache: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SaveJob inserts or updates a job record.
func (s *Store) SaveJob(job *models.ReportJob) error {
	if err := s.db.Save(job).Error; err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob returns the job with the given id.
func (s *Store) GetJob(id string) (*models.ReportJob, error) {
	var job models.ReportJob
	err := s.db.Where(&models.ReportJob{ID: id}).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", id, err)
	}
	return &job, nil
}

// ListJobs returns the most recent jobs first. A non-positive limit returns
// all of them.
func (s *Store) ListJobs(limit int) ([]models.ReportJob, error) {
	q := s.db.Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var jobs []models.ReportJob
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// PurgeJobs deletes finished jobs last updated before the cutoff.
func (s *Store) PurgeJobs(before time.Time) (int64, error) {
	res := s.db.
		Where("updated_at < ?", before).
		Where("status IN ?", []models.JobStatus{models.JobSucceeded, models.JobFailed}).
		Delete(&models.ReportJob{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
