// Package state tracks extraction runs in a local SQLite database:
// when a run happened, against which environment, how many procedures
// were emitted, and how many lineage failures were counted.
package state

import "time"

// RunStatus is the lifecycle state of an extraction run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded extraction run.
type Run struct {
	ID              string
	Environment     string
	Status          RunStatus
	Procedures      int
	LineageFailures int
	StartedAt       time.Time
	CompletedAt     *time.Time
	Error           string
}

// Store persists extraction runs.
type Store interface {
	Open(path string) error
	Migrate() error
	CreateRun(env string) (*Run, error)
	CompleteRun(id string, status RunStatus, procedures, lineageFailures int, errMsg string) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)
	Close() error
}
