package httpblob

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Codingpowerx/ShopIT-Ecommerce-website/internal/storage"
	"github.com/Codingpowerx/ShopIT-Ecommerce-website/pkg/httpclient"
)

// Storage implements storage.Storage against an HTTP blob gateway. All calls
// go through a circuit breaker so a degraded gateway cannot stall request
// handling.
type Storage struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
	logger  *slog.Logger
}

// New creates a blob storage client for the given gateway base URL.
func New(baseURL string, logger *slog.Logger) *Storage {
	client := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(
		client,
		httpclient.DefaultCircuitBreakerConfig("blob-gateway"),
		logger,
	)

	return &Storage{
		client:  cb,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Upload streams the file to the gateway. The gateway stores it under the
// given key and serves it back at the same path.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	url := fmt.Sprintf("%s/files/%s", s.baseURL, input.Key)

	resp, err := s.client.Post(ctx, url, input.ContentType, input.Data)
	if err != nil {
		return nil, fmt.Errorf("upload blob %s: %w", input.Key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("upload blob %s: unexpected status %d", input.Key, resp.StatusCode)
	}

	s.logger.DebugContext(ctx, "uploaded blob",
		slog.String("key", input.Key),
		slog.Int64("size", input.Size),
	)

	return &storage.UploadResult{
		Key: input.Key,
		URL: url,
	}, nil
}

// Delete removes the blob under the given key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	url := fmt.Sprintf("%s/files/%s", s.baseURL, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create DELETE request: %w", err)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete blob %s: unexpected status %d", key, resp.StatusCode)
	}

	return nil
}
