package models

import "time"

// LookupCacheEntry stores one location lookup response, keyed by a hash of
// the normalized query.
type LookupCacheEntry struct {
	Key       string    `gorm:"primaryKey;column:cache_key;size:64" json:"key"`
	Query     string    `gorm:"not null" json:"query"`
	Payload   []byte    `gorm:"not null" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// JobStatus is the state of a background report job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// ReportJob records a background generation request and its outcome.
type ReportJob struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Address      string    `json:"address"`
	Status       JobStatus `gorm:"index;size:16" json:"status"`
	Attempts     int       `json:"attempts"`
	Path         string    `json:"path,omitempty"`
	Pages        int       `json:"pages,omitempty"`
	Bytes        int64     `json:"bytes,omitempty"`
	Placeholders int       `json:"placeholders,omitempty"`
	Degraded     bool      `json:"degraded"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Done reports whether the job reached a final state.
func (j ReportJob) Done() bool {
	return j.Status == JobSucceeded || j.Status == JobFailed
}
