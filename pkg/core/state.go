package core

import "time"

// RunStatus represents the status of a redistribution run.
type RunStatus string

// Run status values.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is a persisted redistribution run.
type Run struct {
	ID                string     `json:"id"`
	Dataset           string     `json:"dataset"`
	Status            RunStatus  `json:"status"`
	Parameters        Parameters `json:"parameters"`
	NumHouseholds     int        `json:"num_households"`
	TotalResources    float64    `json:"total_resources"`
	TotalAdjustedLife float64    `json:"total_adjusted_life"`
	CBar              float64    `json:"c_bar"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	Error             string     `json:"error,omitempty"`
}

// RunTotals are the population-level results attached to a completed run.
type RunTotals struct {
	NumHouseholds     int
	TotalResources    float64
	TotalAdjustedLife float64
	CBar              float64
}

// Store defines the interface for run history persistence.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	CreateRun(dataset string, params Parameters) (*Run, error)
	CompleteRun(id string, totals RunTotals) error
	FailRun(id string, errMsg string) error
	GetRun(id string) (*Run, error)
	LatestRun() (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	SaveAllocations(runID string, allocations []Allocation) error
	GetAllocations(runID string) ([]Allocation, error)
}
