package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TobiSchelling/vizboard/internal/database"
	"github.com/TobiSchelling/vizboard/internal/dataset"
)

type stubSource struct {
	records []dataset.Record
	err     error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchRecords(ctx context.Context) ([]dataset.Record, error) {
	return s.records, s.err
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRecords() []dataset.Record {
	return []dataset.Record{
		{Topic: "oil", Sector: "Energy", Year: dataset.Num(2017)},
		{Topic: "gas", Sector: "Energy", Year: dataset.Num(2018)},
		{Topic: "oil", Sector: "Retail"},
	}
}

func TestRunStoresSnapshot(t *testing.T) {
	db := openTestDB(t)
	p := New(&stubSource{records: sampleRecords()}, db)

	r := p.Run(context.Background())
	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != database.RunOK {
		t.Errorf("expected status ok, got %q", r.Status)
	}
	if len(r.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(r.Steps))
	}
	if len(r.Records) != 3 {
		t.Errorf("expected 3 records in result, got %d", len(r.Records))
	}

	n, _ := db.CountRecords()
	if n != 3 {
		t.Errorf("expected 3 stored records, got %d", n)
	}
	run, err := db.GetRun(r.RunID)
	if err != nil || run == nil {
		t.Fatalf("expected load run %s, err %v", r.RunID, err)
	}
	if run.Status != database.RunOK || run.RecordCount != 3 || run.Source != "stub" {
		t.Errorf("unexpected run: %+v", run)
	}
	if !strings.Contains(r.Steps[2].Summary, "2 topic") {
		t.Errorf("expected topic count in summary, got %q", r.Steps[2].Summary)
	}
}

func TestRunFetchFailureKeepsPreviousSnapshot(t *testing.T) {
	db := openTestDB(t)
	src := &stubSource{records: sampleRecords()}
	p := New(src, db)
	p.Run(context.Background())

	src.records = nil
	src.err = errors.New("connection refused")
	r := p.Run(context.Background())

	if !IsDataUnavailable(r.Err()) {
		t.Fatalf("expected data unavailable error, got %v", r.Err())
	}
	if r.Status != database.RunFailed {
		t.Errorf("expected status failed, got %q", r.Status)
	}
	if len(r.Records) != 3 {
		t.Errorf("expected previous 3 records to be served, got %d", len(r.Records))
	}

	run, _ := db.GetRun(r.RunID)
	if run == nil || run.Error == nil || !strings.Contains(*run.Error, "connection refused") {
		t.Errorf("expected failure recorded on run, got %+v", run)
	}
}

func TestRunFirstFailureLeavesEmptyStore(t *testing.T) {
	db := openTestDB(t)
	r := New(&stubSource{err: errors.New("boom")}, db).Run(context.Background())

	if r.Err() == nil {
		t.Fatal("expected error")
	}
	if len(r.Records) != 0 {
		t.Errorf("expected no records, got %d", len(r.Records))
	}
}

func TestRunEmptyFetch(t *testing.T) {
	db := openTestDB(t)
	p := New(&stubSource{records: sampleRecords()}, db)
	p.Run(context.Background())

	p.src = &stubSource{}
	r := p.Run(context.Background())
	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Status != database.RunEmpty {
		t.Errorf("expected status empty, got %q", r.Status)
	}
	n, _ := db.CountRecords()
	if n != 0 {
		t.Errorf("expected store cleared, got %d records", n)
	}
	if r.Steps[2].Summary != "No records available" {
		t.Errorf("unexpected summary %q", r.Steps[2].Summary)
	}
}

func TestDryRun(t *testing.T) {
	db := openTestDB(t)
	p := New(&stubSource{records: sampleRecords()}, db)
	p.Run(context.Background())

	r := p.DryRun()
	if len(r.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(r.Steps))
	}
	for _, s := range r.Steps {
		if !strings.HasPrefix(s.Summary, "[dry-run]") {
			t.Errorf("expected dry-run summary, got %q", s.Summary)
		}
	}
	if !strings.Contains(r.Steps[1].Summary, "3 records") {
		t.Errorf("expected stored count, got %q", r.Steps[1].Summary)
	}
}
