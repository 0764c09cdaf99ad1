// Package source fetches the raw record set the dashboard is built from.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/TobiSchelling/vizboard/internal/dataset"
)

// DefaultDataPath is appended to a source URL that has no path.
const DefaultDataPath = "/api/data"

// Source supplies the full record set in one call.
type Source interface {
	FetchRecords(ctx context.Context) ([]dataset.Record, error)
	// Name describes the source for logs and load runs.
	Name() string
}

// Options configures New.
type Options struct {
	URL       string
	File      string
	Timeout   time.Duration
	UserAgent string
}

// New returns a file source when File is set, otherwise an HTTP source.
func New(opts Options) (Source, error) {
	if opts.File != "" {
		return NewFileSource(opts.File), nil
	}
	if opts.URL == "" {
		return nil, fmt.Errorf("no record source configured: set source.url or source.file")
	}
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing source url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported source url scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultDataPath
	}
	return NewHTTPSource(u.String(), opts.Timeout, opts.UserAgent), nil
}

// decodeRecords accepts a JSON array of records or an object wrapping the
// array in a "data" field.
func decodeRecords(data []byte) ([]dataset.Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case '[':
		var records []dataset.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decoding records: %w", err)
		}
		return records, nil
	case '{':
		var envelope struct {
			Data []dataset.Record `json:"data"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("decoding records: %w", err)
		}
		return envelope.Data, nil
	default:
		preview := string(data[:min(len(data), 40)])
		return nil, fmt.Errorf("unexpected record payload starting with %q", strings.TrimSpace(preview))
	}
}
