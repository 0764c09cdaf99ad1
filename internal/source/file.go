package source

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/TobiSchelling/vizboard/internal/dataset"
)

// FileSource reads records from a local JSON or CSV export.
type FileSource struct {
	Path string
}

// NewFileSource creates a source for path. Files ending in .csv are parsed
// as CSV with a header row; anything else as JSON.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string { return "file:" + s.Path }

func (s *FileSource) FetchRecords(ctx context.Context) ([]dataset.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.Path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(s.Path), ".csv") {
		return parseCSV(f)
	}

	data, err := io.ReadAll(io.LimitReader(f, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}
	return decodeRecords(data)
}

// parseCSV maps each row onto a record by header name. Columns that are not
// typed record fields become passthrough fields.
func parseCSV(r io.Reader) ([]dataset.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	var records []dataset.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}

		obj := make(map[string]string, len(headers))
		for i, val := range row {
			if i >= len(headers) {
				break
			}
			obj[headers[i]] = strings.TrimSpace(val)
		}

		data, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		var rec dataset.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
