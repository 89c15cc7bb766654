package db

// Schema defines the SQLite schema for clone run history.
// A run row records one end-to-end clone operation; result rows record the
// per-region outcomes belonging to it.
const Schema = `
CREATE TABLE IF NOT EXISTS clone_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_image_id TEXT NOT NULL,
    source_region TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('running', 'succeeded', 'failed')),
    error_message TEXT,
    started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    completed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_clone_runs_source ON clone_runs(source_image_id);
CREATE INDEX IF NOT EXISTS idx_clone_runs_started_at ON clone_runs(started_at);

CREATE TABLE IF NOT EXISTS clone_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL REFERENCES clone_runs(id),
    region TEXT NOT NULL,
    success INTEGER NOT NULL,
    image_id TEXT,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_clone_results_run_id ON clone_results(run_id);
`

// Run status constants
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run represents one clone operation
type Run struct {
	ID            int64
	SourceImageID string
	SourceRegion  string
	Status        string
	ErrorMessage  string
	StartedAt     string
	CompletedAt   string
}

// Result represents one region's outcome within a run
type Result struct {
	ID           int64
	RunID        int64
	Region       string
	Success      bool
	ImageID      string
	ErrorMessage string
}
