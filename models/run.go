package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type RunMode string

const (
	RunModeMock   RunMode = "mock"
	RunModeScrape RunMode = "scrape"
	RunModeBulk   RunMode = "bulk"
	RunModeImport RunMode = "import"
)

type ImportRun struct {
	ID         int64      `json:"id" db:"id"`
	RunKey     string     `json:"run_key" db:"run_key"`
	Mode       RunMode    `json:"mode" db:"mode"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at" db:"finished_at"`
	Status     RunStatus  `json:"status" db:"status"`
	Discovered int        `json:"discovered" db:"discovered"`
	Imported   int        `json:"imported" db:"imported"`
	Skipped    int        `json:"skipped" db:"skipped"`
	Failed     int        `json:"failed" db:"failed"`
	Errors     int        `json:"errors" db:"errors"`
}

type ImportOutcome string

const (
	OutcomeImported ImportOutcome = "imported"
	OutcomeSkipped  ImportOutcome = "skipped"
	OutcomeFailed   ImportOutcome = "failed"
)

// ImportResult is the outcome of importing one venue. VenueID is set only when
// the venue was imported; Err only when it failed.
type ImportResult struct {
	Outcome ImportOutcome
	VenueID int64
	Err     error
}

type CityStatus string

const (
	CityPending    CityStatus = "pending"
	CityInProgress CityStatus = "in_progress"
	CityCompleted  CityStatus = "completed"
	CityFailed     CityStatus = "failed"
)

// ImportStats aggregates per-venue outcomes over a run.
type ImportStats struct {
	Discovered int `json:"discovered"`
	Imported   int `json:"imported"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Errors     int `json:"errors"`
}

func (s *ImportStats) Add(r ImportResult) {
	switch r.Outcome {
	case OutcomeImported:
		s.Imported++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

func (s *ImportStats) Merge(o ImportStats) {
	s.Discovered += o.Discovered
	s.Imported += o.Imported
	s.Skipped += o.Skipped
	s.Failed += o.Failed
	s.Errors += o.Errors
}
