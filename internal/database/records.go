package database

import (
	"encoding/json"
	"fmt"

	"github.com/TobiSchelling/vizboard/internal/dataset"
)

// ReplaceRecords swaps the stored snapshot for records in one transaction.
// Fetch order is kept in the ordinal column.
func (db *DB) ReplaceRecords(runID string, records []dataset.Record) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM records"); err != nil {
		return fmt.Errorf("clearing records: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO records (ordinal, run_id, payload) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
		if _, err := stmt.Exec(i, runID, string(payload)); err != nil {
			return fmt.Errorf("inserting record %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// LoadRecords returns the stored snapshot in fetch order.
func (db *DB) LoadRecords() ([]dataset.Record, error) {
	rows, err := db.conn.Query("SELECT payload FROM records ORDER BY ordinal")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []dataset.Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r dataset.Record
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decoding stored record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountRecords returns the size of the stored snapshot.
func (db *DB) CountRecords() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM records").Scan(&n)
	return n, err
}
