// In file: internal/llm/transport.go
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// requestBuilder creates a fresh request for every attempt so the body can be re-read.
type requestBuilder func(ctx context.Context, body io.Reader) (*http.Request, error)

// doRequestWithRetry performs a POST with exponential backoff. Network errors and
// 5xx responses are retried up to maxRetries times; 4xx responses fail immediately.
func doRequestWithRetry(ctx context.Context, httpClient *http.Client, provider string, payload []byte, build requestBuilder) ([]byte, error) {
	var lastErr error
	delay := initialRetryDelay

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%s request cancelled: %w (last error: %v)", provider, ctx.Err(), lastErr)
			case <-time.After(delay):
			}
			delay *= 2
		}

		req, err := build(ctx, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%s request failed (attempt %d/%d): %w", provider, i+1, maxRetries, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %s response body: %w", provider, readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		lastErr = fmt.Errorf("%s API error (attempt %d/%d): status %d, body: %s", provider, i+1, maxRetries, resp.StatusCode, string(body))

		// Do not retry on client errors (e.g., 400 Bad Request).
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, lastErr
		}
	}
	return nil, lastErr
}
