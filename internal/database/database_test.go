package database

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/TobiSchelling/vizboard/internal/dataset"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRecords() []dataset.Record {
	return []dataset.Record{
		{Topic: "oil", Sector: "Energy", Year: dataset.Num(2017), Likelihood: dataset.Num(3)},
		{Topic: "gas", Sector: "Energy", Year: dataset.Num(2018), Intensity: dataset.Num(6),
			Extra: map[string]json.RawMessage{"region": json.RawMessage(`"Northern America"`)}},
		{Topic: "market", Sector: "Retail"},
	}
}

func TestReplaceAndLoadRecords(t *testing.T) {
	db := openTestDB(t)
	if err := db.InsertRun("run-1", "file:data.json"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.ReplaceRecords("run-1", sampleRecords()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := db.LoadRecords()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Topic != "oil" || records[2].Topic != "market" {
		t.Errorf("expected fetch order preserved, got %q..%q", records[0].Topic, records[2].Topic)
	}
	if records[1].Get(dataset.Field("region")) != "Northern America" {
		t.Errorf("expected passthrough field preserved, got %q", records[1].Get(dataset.Field("region")))
	}
	if records[2].Year.Valid {
		t.Error("expected missing year to stay invalid")
	}
}

func TestReplaceRecordsSwapsSnapshot(t *testing.T) {
	db := openTestDB(t)
	db.InsertRun("run-1", "test")
	db.ReplaceRecords("run-1", sampleRecords())
	db.InsertRun("run-2", "test")
	if err := db.ReplaceRecords("run-2", sampleRecords()[:1]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := db.CountRecords()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 record after replace, got %d", n)
	}
}

func TestLoadRecordsEmpty(t *testing.T) {
	db := openTestDB(t)
	records, err := db.LoadRecords()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)

	last, err := db.GetLastRun()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last != nil {
		t.Fatal("expected no run on empty db")
	}

	db.InsertRun("run-1", "http://localhost/api/data")
	if err := db.FinishRun("run-1", RunFailed, 0, "connection refused"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	db.InsertRun("run-2", "http://localhost/api/data")
	db.FinishRun("run-2", RunOK, 42, "")

	last, err = db.GetLastRun()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last == nil || last.ID != "run-2" {
		t.Fatalf("expected run-2 as last run, got %+v", last)
	}
	if last.Status != RunOK || last.RecordCount != 42 || last.Error != nil || last.FinishedAt == nil {
		t.Errorf("unexpected run fields: %+v", last)
	}

	failed, _ := db.GetRun("run-1")
	if failed == nil || failed.Error == nil || *failed.Error != "connection refused" {
		t.Errorf("expected stored error message, got %+v", failed)
	}

	runs, _ := db.GetRecentRuns(10)
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}

	missing, err := db.GetRun("nope")
	if err != nil || missing != nil {
		t.Errorf("expected nil run for unknown id, got %+v err=%v", missing, err)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	db.InsertRun("run-1", "test")
	db.FinishRun("run-1", RunFailed, 0, "boom")
	db.InsertRun("run-2", "test")
	db.ReplaceRecords("run-2", sampleRecords())
	db.FinishRun("run-2", RunOK, 3, "")

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Records != 3 || stats.Runs != 2 || stats.FailedRuns != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.LastRun == nil || stats.LastRun.ID != "run-2" {
		t.Errorf("expected last run run-2, got %+v", stats.LastRun)
	}
}

func TestPreferences(t *testing.T) {
	db := openTestDB(t)

	_, ok, err := db.GetPreference("theme")
	if err != nil || ok {
		t.Fatalf("expected missing preference, got ok=%v err=%v", ok, err)
	}

	if err := db.SetPreferences(map[string]string{"theme": "dark"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.SetPreferences(map[string]string{"theme": "light", "filter": "{}"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	val, ok, err := db.GetPreference("theme")
	if err != nil || !ok || val != "light" {
		t.Errorf("expected 'light', got %q ok=%v err=%v", val, ok, err)
	}
	val, ok, _ = db.GetPreference("filter")
	if !ok || val != "{}" {
		t.Errorf("expected '{}', got %q ok=%v", val, ok)
	}
}

func TestSetPreferencesRollsBackOnFailure(t *testing.T) {
	db := openTestDB(t)
	if err := db.SetPreferences(map[string]string{"theme": "dark"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Keys are written in sorted order, so "filter" lands before "theme" fails.
	if _, err := db.conn.Exec(`CREATE TRIGGER reject_theme BEFORE INSERT ON preferences
		WHEN NEW.key = 'theme' BEGIN SELECT RAISE(ABORT, 'rejected'); END`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := db.SetPreferences(map[string]string{"theme": "light", "filter": "{}"})
	if err == nil {
		t.Fatal("expected error from rejected key")
	}

	val, _, _ := db.GetPreference("theme")
	if val != "dark" {
		t.Errorf("expected theme left at 'dark', got %q", val)
	}
	if _, ok, _ := db.GetPreference("filter"); ok {
		t.Error("expected filter write to be rolled back")
	}
}

func TestOpenAppliesConnectionPragmas(t *testing.T) {
	db := openTestDB(t)
	var timeout int
	if err := db.conn.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timeout != busyTimeoutMillis {
		t.Errorf("expected busy_timeout %d, got %d", busyTimeoutMillis, timeout)
	}
	var fk int
	if err := db.conn.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys on, got %d", fk)
	}

	var mode string
	if err := db.conn.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != "wal" {
		t.Errorf("expected wal journal mode, got %q", mode)
	}
}
