package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// FetcherOption customises an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// HTTPFetcher loads a gym's form reference data from the member API.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPFetcher constructs a fetcher for the API base URL.
func NewHTTPFetcher(baseURL string, options ...FetcherOption) (*HTTPFetcher, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("refdata: base URL is required")
	}
	f := &HTTPFetcher{
		baseURL: trimmed,
		client:  http.DefaultClient,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// FormOptions fetches GET {base}/Gym/{gymID}/formData and unwraps the
// response envelope.
func (f *HTTPFetcher) FormOptions(ctx context.Context, gymID int64) (*FormOptions, error) {
	endpoint := fmt.Sprintf("%s/Gym/%d/formData", f.baseURL, gymID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("refdata: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refdata: fetch form options: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refdata: form options request returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Success bool        `json:"success"`
		Data    FormOptions `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("refdata: decode form options: %w", err)
	}
	if !envelope.Success {
		return nil, errors.New("refdata: form options request was rejected")
	}

	f.logger.DebugContext(ctx, "form options fetched", "gym_id", gymID)
	return &envelope.Data, nil
}
