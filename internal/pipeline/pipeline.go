package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/TobiSchelling/vizboard/internal/database"
	"github.com/TobiSchelling/vizboard/internal/dataset"
	"github.com/TobiSchelling/vizboard/internal/filter"
	"github.com/TobiSchelling/vizboard/internal/source"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run. Records is the snapshot
// the dashboard should serve afterwards.
type Result struct {
	RunID   string
	Status  string
	Records []dataset.Record
	Steps   []StepResult
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}

// Pipeline loads the record source into the database: fetch, persist,
// summarize.
type Pipeline struct {
	src   source.Source
	db    *database.DB
	newID func() string
}

// New creates a new pipeline.
func New(src source.Source, db *database.DB) *Pipeline {
	return &Pipeline{
		src:   src,
		db:    db,
		newID: func() string { return uuid.NewString() },
	}
}

// Run executes fetch, persist and summarize. A failed fetch keeps the
// previously stored snapshot; an empty fetch replaces it with nothing.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{RunID: p.newID()}

	if err := p.db.InsertRun(r.RunID, p.src.Name()); err != nil {
		r.Status = database.RunFailed
		r.Steps = append(r.Steps, StepResult{Name: "Fetch", Err: fmt.Errorf("recording load run: %w", err)})
		return r
	}

	// Step 1: Fetch
	records, step := p.runFetch(ctx)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		r.Status = database.RunFailed
		p.finish(r.RunID, r.Status, 0, step.Err)
		r.Records = p.previous()
		return r
	}

	// Step 2: Persist
	step = p.runPersist(r.RunID, records)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		r.Status = database.RunFailed
		p.finish(r.RunID, r.Status, 0, step.Err)
		r.Records = p.previous()
		return r
	}

	r.Status = database.RunOK
	if len(records) == 0 {
		r.Status = database.RunEmpty
	}
	p.finish(r.RunID, r.Status, len(records), nil)
	r.Records = records

	// Step 3: Summarize
	r.Steps = append(r.Steps, StepResult{Name: "Summarize", Summary: Summarize(records)})
	return r
}

// DryRun reports what is stored without contacting the source.
func (p *Pipeline) DryRun() *Result {
	r := &Result{}

	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("[dry-run] Would fetch records from %s", p.src.Name()),
	})

	count, err := p.db.CountRecords()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Persist",
		Summary: fmt.Sprintf("[dry-run] %d records currently stored", count),
		Err:     err,
	})

	last, err := p.db.GetLastRun()
	summary := "[dry-run] No previous load run"
	if last != nil {
		summary = fmt.Sprintf("[dry-run] Last run %s: %s, %d records", last.ID, last.Status, last.RecordCount)
	}
	r.Steps = append(r.Steps, StepResult{Name: "Summarize", Summary: summary, Err: err})

	return r
}

func (p *Pipeline) runFetch(ctx context.Context) ([]dataset.Record, StepResult) {
	slog.Info("Step 1/3: Fetching records", "source", p.src.Name())
	records, err := p.src.FetchRecords(ctx)
	if err != nil {
		slog.Warn("record source unavailable", "source", p.src.Name(), "error", err)
		return nil, StepResult{Name: "Fetch", Err: fmt.Errorf("%w: %w", dataset.ErrDataUnavailable, err)}
	}
	if len(records) == 0 {
		slog.Warn("record source returned no records", "source", p.src.Name())
	}
	return records, StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("Fetched %d records", len(records)),
	}
}

func (p *Pipeline) runPersist(runID string, records []dataset.Record) StepResult {
	slog.Info("Step 2/3: Persisting snapshot", "run", runID, "records", len(records))
	if err := p.db.ReplaceRecords(runID, records); err != nil {
		return StepResult{Name: "Persist", Err: fmt.Errorf("storing records: %w", err)}
	}
	return StepResult{
		Name:    "Persist",
		Summary: fmt.Sprintf("Stored %d records (run %s)", len(records), runID),
	}
}

func (p *Pipeline) finish(runID, status string, count int, runErr error) {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	if err := p.db.FinishRun(runID, status, count, msg); err != nil {
		slog.Error("failed to finish load run", "run", runID, "error", err)
	}
}

// previous loads the stored snapshot after a failed run.
func (p *Pipeline) previous() []dataset.Record {
	records, err := p.db.LoadRecords()
	if err != nil {
		slog.Error("failed to load stored records", "error", err)
		return nil
	}
	return records
}

// Summarize describes records by their option counts per filter dimension.
func Summarize(records []dataset.Record) string {
	if len(records) == 0 {
		return "No records available"
	}
	parts := make([]string, 0, len(filter.Dimensions))
	for _, dim := range filter.Dimensions {
		parts = append(parts, fmt.Sprintf("%d %s", len(filter.DeriveOptions(records, dim)), dim))
	}
	return fmt.Sprintf("%d records; distinct values: %s", len(records), strings.Join(parts, ", "))
}

// IsDataUnavailable reports whether err came from a failed record fetch.
func IsDataUnavailable(err error) bool {
	return errors.Is(err, dataset.ErrDataUnavailable)
}
