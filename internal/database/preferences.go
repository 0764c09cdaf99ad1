package database

import (
	"database/sql"
	"fmt"
	"slices"
)

// GetPreference returns the stored value for key.
func (db *DB) GetPreference(key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRow("SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetPreferences stores every key in values in one transaction, replacing
// previous values. Either all keys are written or none.
func (db *DB) SetPreferences(values map[string]string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin preferences: %w", err)
	}
	defer tx.Rollback()

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if _, err := tx.Exec(
			`INSERT INTO preferences (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')`,
			k, values[k],
		); err != nil {
			return fmt.Errorf("saving preference %q: %w", k, err)
		}
	}
	return tx.Commit()
}
