package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/TobiSchelling/vizboard/internal/dataset"
)

const maxPayloadBytes = 64 << 20

// StatusError is returned when the data endpoint answers with an error status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// HTTPSource reads records from a REST endpoint such as GET /api/data.
type HTTPSource struct {
	URL       string
	UserAgent string
	client    *http.Client
}

// NewHTTPSource creates a source for url. A zero timeout defaults to 30s.
func NewHTTPSource(url string, timeout time.Duration, userAgent string) *HTTPSource {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if userAgent == "" {
		userAgent = "vizboard/1.0"
	}
	return &HTTPSource{
		URL:       url,
		UserAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

func (s *HTTPSource) Name() string { return s.URL }

// FetchRecords performs a single GET and decodes the body.
func (s *HTTPSource) FetchRecords(ctx context.Context) ([]dataset.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode, URL: s.URL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.URL, err)
	}

	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}
	slog.Debug("fetched records", "url", s.URL, "count", len(records))
	return records, nil
}
