package database

import (
	"database/sql"
)

// InsertRun records the start of a load run.
func (db *DB) InsertRun(id, source string) error {
	_, err := db.conn.Exec(
		"INSERT INTO load_runs (id, source, status) VALUES (?, ?, ?)",
		id, source, RunRunning,
	)
	return err
}

// FinishRun stores the outcome of a load run. errMsg is ignored when empty.
func (db *DB) FinishRun(id, status string, recordCount int, errMsg string) error {
	var errVal *string
	if errMsg != "" {
		errVal = &errMsg
	}
	_, err := db.conn.Exec(
		`UPDATE load_runs SET status = ?, record_count = ?, error = ?, finished_at = datetime('now')
		WHERE id = ?`,
		status, recordCount, errVal, id,
	)
	return err
}

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(id string) (*LoadRun, error) {
	row := db.conn.QueryRow(
		`SELECT id, source, status, record_count, error, started_at, finished_at
		FROM load_runs WHERE id = ?`, id,
	)
	return scanRun(row)
}

// GetLastRun returns the most recent run, or nil if none exists.
func (db *DB) GetLastRun() (*LoadRun, error) {
	row := db.conn.QueryRow(
		`SELECT id, source, status, record_count, error, started_at, finished_at
		FROM load_runs ORDER BY started_at DESC, rowid DESC LIMIT 1`,
	)
	return scanRun(row)
}

// GetRecentRuns returns up to limit runs, newest first.
func (db *DB) GetRecentRuns(limit int) ([]LoadRun, error) {
	rows, err := db.conn.Query(
		`SELECT id, source, status, record_count, error, started_at, finished_at
		FROM load_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []LoadRun
	for rows.Next() {
		var r LoadRun
		if err := rows.Scan(&r.ID, &r.Source, &r.Status, &r.RecordCount, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetStats returns aggregate statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM records").Scan(&s.Records); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM load_runs").Scan(&s.Runs); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM load_runs WHERE status = ?", RunFailed).Scan(&s.FailedRuns); err != nil {
		return nil, err
	}
	last, err := db.GetLastRun()
	if err != nil {
		return nil, err
	}
	s.LastRun = last
	return s, nil
}

func scanRun(row *sql.Row) (*LoadRun, error) {
	var r LoadRun
	if err := row.Scan(&r.ID, &r.Source, &r.Status, &r.RecordCount, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}
