package database

// Run statuses.
const (
	RunRunning = "running"
	RunOK      = "ok"
	RunEmpty   = "empty"
	RunFailed  = "failed"
)

// LoadRun records one fetch of the record source.
type LoadRun struct {
	ID          string
	Source      string
	Status      string
	RecordCount int
	Error       *string
	StartedAt   *string
	FinishedAt  *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Records    int
	Runs       int
	FailedRuns int
	LastRun    *LoadRun
}
