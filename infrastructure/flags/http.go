package flags

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	domainflags "github.com/felixgeelhaar/skycast/domain/flags"
)

// HTTPFetcher retrieves flag snapshots from a configuration service over
// HTTP. The service exposes GET {endpoint}/flags?label={label} returning
// {"flags":[{"name":"...","label":"...","enabled":true}]}.
type HTTPFetcher struct {
	endpoint string
	label    string
	client   *http.Client
}

// HTTPOption configures the fetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// NewHTTPFetcher creates a fetcher for the given endpoint and label.
func NewHTTPFetcher(endpoint, label string, opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		endpoint: endpoint,
		label:    label,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type flagEntry struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

type flagsResponse struct {
	Flags []flagEntry `json:"flags"`
}

// Fetch retrieves the flag set for the configured label.
func (f *HTTPFetcher) Fetch(ctx context.Context) (*domainflags.Snapshot, error) {
	u := f.endpoint + "/flags?label=" + url.QueryEscape(f.label)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build flags request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch flags: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch flags: unexpected status %d", resp.StatusCode)
	}

	var body flagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode flags response: %w", err)
	}

	values := make(map[domainflags.Flag]bool, len(body.Flags))
	for _, entry := range body.Flags {
		values[domainflags.Flag(entry.Name)] = entry.Enabled
	}

	return &domainflags.Snapshot{
		Values:    values,
		FetchedAt: time.Now(),
		Source:    "remote",
	}, nil
}

var _ Fetcher = (*HTTPFetcher)(nil)
