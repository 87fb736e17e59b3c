package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// HTTPFetcher downloads binaries artifacts over HTTP.
type HTTPFetcher struct {
	client *http.Client
	log    *slog.Logger
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client falls back to
// http.DefaultClient; a nil logger to slog.Default(). Download duration is
// bounded only by the caller's context: acquisition is a one-time,
// minutes-scale operation and gets no separate internal timeout.
func NewHTTPFetcher(client *http.Client, logger *slog.Logger) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{client: client, log: logger}
}

// Fetch downloads the artifact identified by spec and returns its raw bytes.
func (f *HTTPFetcher) Fetch(ctx context.Context, spec Spec) ([]byte, error) {
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid fetch spec: %w", err)
	}

	url := spec.URL()
	f.log.Info("downloading server binaries", "url", url, "version", string(spec.Version))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.log.Debug("close download body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read download body for %s: %w", url, err)
	}
	f.log.Info("downloaded server binaries", "bytes", len(data), "version", string(spec.Version))
	return data, nil
}
