package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

// DB represents the run archive interface
type DB interface {
	Close() error
	Migrate() error
	SaveRun(run *Run) error
	GetRun(id string) (*Run, error)
	ListRuns(query RunsQuery) (*RunsList, error)
	DeleteRun(id string) error
}

// RunsQuery represents query parameters for listing runs
type RunsQuery struct {
	Verdict string `json:"verdict,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// RunsList represents a paginated runs response
type RunsList struct {
	Runs       []Run `json:"runs"`
	TotalCount int   `json:"totalCount"`
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	TotalPages int   `json:"totalPages"`
}

// Run is one archived simulation run: its configuration, headline balance
// numbers, and the full report for later inspection.
type Run struct {
	ID         string    `json:"id" db:"id"`
	Seed       string    `json:"seed" db:"seed"`
	Trials     int64     `json:"trials" db:"trials"`
	Wins       int64     `json:"wins" db:"wins"`
	WinRate    float64   `json:"win_rate" db:"win_rate"`
	Verdict    string    `json:"verdict" db:"verdict"`
	MeanTurns  float64   `json:"mean_turns" db:"mean_turns"`
	ConfigJSON string    `json:"config_json" db:"config_json"`
	ReportJSON string    `json:"report_json" db:"report_json"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
