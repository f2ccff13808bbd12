package iocache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/huangsam/statdash/internal/contract"
	"github.com/huangsam/statdash/schema"
	"github.com/oklog/ulid/v2"
)

// Table names for run tracking.
const (
	runsTable      = "statdash_runs"
	runSeriesTable = "statdash_run_series"
)

// runTables lists the run tables in creation order.
var runTables = []string{runsTable, runSeriesTable}

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, contract.GetRunsDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &RunStoreImpl{db: db, backend: backend}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{runSeriesTable, getCreateRunSeriesQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}

	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for statdash_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_key CHAR(26) NOT NULL UNIQUE,
				command VARCHAR(32) NOT NULL,
				page VARCHAR(255),
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms BIGINT,
				series_count INT NOT NULL DEFAULT 0,
				failed_count INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_key TEXT NOT NULL UNIQUE,
				command TEXT NOT NULL,
				page TEXT,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms BIGINT,
				series_count INT NOT NULL DEFAULT 0,
				failed_count INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_key TEXT NOT NULL UNIQUE,
				command TEXT NOT NULL,
				page TEXT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				series_count INTEGER NOT NULL DEFAULT 0,
				failed_count INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateRunSeriesQuery returns the CREATE TABLE query for statdash_run_series.
func getCreateRunSeriesQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runSeriesTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				series_id VARCHAR(255) NOT NULL,
				fetch_time DATETIME(6) NOT NULL,
				point_count INT NOT NULL,
				first_period VARCHAR(32),
				last_period VARCHAR(32),
				status VARCHAR(16) NOT NULL,
				error_text TEXT,
				PRIMARY KEY (run_id, series_id)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				series_id TEXT NOT NULL,
				fetch_time TIMESTAMPTZ NOT NULL,
				point_count INT NOT NULL,
				first_period TEXT,
				last_period TEXT,
				status TEXT NOT NULL,
				error_text TEXT,
				PRIMARY KEY (run_id, series_id)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				series_id TEXT NOT NULL,
				fetch_time TEXT NOT NULL,
				point_count INTEGER NOT NULL,
				first_period TEXT,
				last_period TEXT,
				status TEXT NOT NULL,
				error_text TEXT,
				PRIMARY KEY (run_id, series_id)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new run and returns its ID and ULID run key.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, command string, page string, configParams map[string]any) (int64, string, error) {
	runKey := ulid.Make().String()

	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, runKey, nil
	}

	configJSON, err := sonic.Marshal(configParams)
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal config params: %w", err)
	}

	var pageValue any
	if page != "" {
		pageValue = page
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	args := []any{runKey, command, pageValue, formatTime(startTime, rs.backend), string(configJSON)}

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_key, command, page, start_time, config_params) VALUES ($1, $2, $3, $4, $5) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, args...).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_key, command, page, start_time, config_params) VALUES (?, ?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}

	if err != nil {
		return 0, "", fmt.Errorf("failed to insert run: %w", err)
	}

	return runID, runKey, nil
}

// RecordSeries stores the fetch outcome of one series within a run.
func (rs *RunStoreImpl) RecordSeries(runID int64, seriesID string, stat schema.RunSeriesStat) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, series_id, fetch_time, point_count, first_period, last_period, status, error_text)
		VALUES (%s)
	`, quoteTableName(runSeriesTable, rs.backend), strings.Join(placeholders(rs.backend, 8), ", "))

	args := []any{
		runID, seriesID, formatTime(stat.FetchTime, rs.backend), stat.PointCount,
		nullableString(stat.FirstPeriod), nullableString(stat.LastPeriod), string(stat.Status), nullableString(stat.ErrorText),
	}
	if _, err := rs.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to insert run series %s: %w", seriesID, err)
	}

	return nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, seriesCount int, failedCount int) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	p := placeholders(rs.backend, 5)

	var rawStart any
	selectQuery := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, p[0])
	if err := rs.db.QueryRow(selectQuery, runID).Scan(&rawStart); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := scanTime(rawStart, rs.backend)
	if err != nil {
		return fmt.Errorf("failed to parse start_time: %w", err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()

	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, series_count = %s, failed_count = %s WHERE run_id = %s`,
		quotedTableName, p[0], p[1], p[2], p[3], p[4])
	if _, err := rs.db.Exec(updateQuery, formatTime(endTime, rs.backend), durationMs, seriesCount, failedCount, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, rs.backend)

	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var rawLast any
		lastRunQuery := fmt.Sprintf("SELECT run_id, run_key, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns)
		if err := rs.db.QueryRow(lastRunQuery).Scan(&status.LastRunID, &status.LastRunKey, &rawLast); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastRunTime, err := scanTime(rawLast, rs.backend)
		if err != nil {
			return status, fmt.Errorf("failed to parse last run time: %w", err)
		}
		status.LastRunTime = lastRunTime

		var rawOldest any
		oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedRuns)
		if err := rs.db.QueryRow(oldestRunQuery).Scan(&rawOldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		oldestRunTime, err := scanTime(rawOldest, rs.backend)
		if err != nil {
			return status, fmt.Errorf("failed to parse oldest run time: %w", err)
		}
		status.OldestRunTime = oldestRunTime

		totalsQuery := fmt.Sprintf("SELECT COALESCE(SUM(series_count), 0), COALESCE(SUM(failed_count), 0) FROM %s", quotedRuns)
		if err := rs.db.QueryRow(totalsQuery).Scan(&status.TotalSeriesFetched, &status.TotalFailures); err != nil {
			return status, fmt.Errorf("failed to get run totals: %w", err)
		}
	}

	for _, table := range runTables {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))
		if err := rs.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllRuns retrieves all runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_key, command, page, start_time, end_time, run_duration_ms,
		series_count, failed_count, config_params FROM %s ORDER BY run_id`, quoteTableName(runsTable, rs.backend))

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var rawStart, rawEnd any
		if err := rows.Scan(&record.RunID, &record.RunKey, &record.Command, &record.Page, &rawStart, &rawEnd,
			&record.RunDurationMs, &record.SeriesCount, &record.FailedCount, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if record.StartTime, err = scanTime(rawStart, rs.backend); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		if rawEnd != nil {
			endTime, err := scanTime(rawEnd, rs.backend)
			if err != nil {
				return nil, fmt.Errorf("failed to parse end_time: %w", err)
			}
			record.EndTime = &endTime
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return results, nil
}

// GetAllRunSeries retrieves all per-series records from the store.
func (rs *RunStoreImpl) GetAllRunSeries() ([]schema.RunSeriesRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, series_id, fetch_time, point_count, first_period, last_period, status, error_text
		FROM %s ORDER BY run_id, series_id`, quoteTableName(runSeriesTable, rs.backend))

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query run series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunSeriesRecord
	for rows.Next() {
		var record schema.RunSeriesRecord
		var rawFetch any
		if err := rows.Scan(&record.RunID, &record.SeriesID, &rawFetch, &record.PointCount,
			&record.FirstPeriod, &record.LastPeriod, &record.Status, &record.ErrorText); err != nil {
			return nil, fmt.Errorf("failed to scan run series: %w", err)
		}

		if record.FetchTime, err = scanTime(rawFetch, rs.backend); err != nil {
			return nil, fmt.Errorf("failed to parse fetch_time: %w", err)
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run series: %w", err)
	}

	return results, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
