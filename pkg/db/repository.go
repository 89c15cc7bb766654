// Package db records clone run history in SQLite.
package db

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/amitools/amiclone/pkg/errors"
)

// Repository provides database operations for clone runs
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new repository
func NewRepository(dbPath string) (*Repository, error) {
	slog.Info("database_init", "db_path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		slog.Error("database_open_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to open database")
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		slog.Error("database_schema_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to create schema")
	}

	slog.Info("database_ready", "db_path", dbPath)
	return &Repository{db: db}, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// CreateRun inserts a new run record in the running state
func (r *Repository) CreateRun(sourceImageID, sourceRegion string) (int64, error) {
	slog.Info("database_create_run", "source_image_id", sourceImageID, "source_region", sourceRegion)

	query := `INSERT INTO clone_runs (source_image_id, source_region, status) VALUES (?, ?, ?)`
	result, err := r.db.Exec(query, sourceImageID, sourceRegion, StatusRunning)
	if err != nil {
		slog.Error("database_insert_failed", "source_image_id", sourceImageID, "error", err)
		return 0, errors.Wrap(err, "failed to insert run")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get last insert id")
	}

	slog.Info("database_run_created", "run_id", id)
	return id, nil
}

// CompleteRun marks a run finished with its terminal status
func (r *Repository) CompleteRun(runID int64, success bool, errorMessage string) error {
	status := StatusSucceeded
	if !success {
		status = StatusFailed
	}
	slog.Info("database_complete_run", "run_id", runID, "status", status)

	query := `
		UPDATE clone_runs
		SET status = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := r.db.Exec(query, status, errorMessage, runID)
	if err != nil {
		slog.Error("database_update_failed", "run_id", runID, "error", err)
		return errors.Wrap(err, "failed to update run")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return fmt.Errorf("run not found: id=%d", runID)
	}

	return nil
}

// AddResult records one region's outcome for a run
func (r *Repository) AddResult(runID int64, region string, success bool, imageID, errorMessage string) error {
	slog.Info("database_add_result", "run_id", runID, "region", region, "success", success)

	query := `
		INSERT INTO clone_results (run_id, region, success, image_id, error_message)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, runID, region, success, imageID, errorMessage); err != nil {
		slog.Error("database_result_insert_failed", "run_id", runID, "region", region, "error", err)
		return errors.Wrap(err, "failed to insert result")
	}

	return nil
}

// GetRun retrieves one run by id
func (r *Repository) GetRun(runID int64) (*Run, error) {
	query := `
		SELECT id, source_image_id, source_region, status, error_message, started_at, completed_at
		FROM clone_runs WHERE id = ?
	`
	var run Run
	var errorMessage, completedAt sql.NullString

	err := r.db.QueryRow(query, runID).Scan(
		&run.ID, &run.SourceImageID, &run.SourceRegion, &run.Status,
		&errorMessage, &run.StartedAt, &completedAt)

	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		slog.Error("database_query_failed", "run_id", runID, "error", err)
		return nil, errors.Wrap(err, "failed to query run")
	}

	run.ErrorMessage = errorMessage.String
	run.CompletedAt = completedAt.String
	return &run, nil
}

// ListRuns retrieves all runs, newest first
func (r *Repository) ListRuns() ([]*Run, error) {
	query := `
		SELECT id, source_image_id, source_region, status, error_message, started_at, completed_at
		FROM clone_runs ORDER BY started_at DESC, id DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		slog.Error("database_list_query_failed", "error", err)
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var errorMessage, completedAt sql.NullString

		err := rows.Scan(
			&run.ID, &run.SourceImageID, &run.SourceRegion, &run.Status,
			&errorMessage, &run.StartedAt, &completedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}

		run.ErrorMessage = errorMessage.String
		run.CompletedAt = completedAt.String
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate rows")
	}

	return runs, nil
}

// ResultsForRun retrieves a run's per-region outcomes
func (r *Repository) ResultsForRun(runID int64) ([]*Result, error) {
	query := `
		SELECT id, run_id, region, success, image_id, error_message
		FROM clone_results WHERE run_id = ? ORDER BY id
	`
	rows, err := r.db.Query(query, runID)
	if err != nil {
		slog.Error("database_results_query_failed", "run_id", runID, "error", err)
		return nil, errors.Wrap(err, "failed to query results")
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		var res Result
		var imageID, errorMessage sql.NullString

		if err := rows.Scan(&res.ID, &res.RunID, &res.Region, &res.Success, &imageID, &errorMessage); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}

		res.ImageID = imageID.String
		res.ErrorMessage = errorMessage.String
		results = append(results, &res)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate rows")
	}

	return results, nil
}
