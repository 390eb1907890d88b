// Package fetch provides the shared HTTP transport used by all provider
// clients: context-aware GET requests with typed status errors, plus a
// reusable retry-with-backoff combinator.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes caps response reads. Provider payloads are a few MB at worst;
// anything larger is a misbehaving upstream.
const maxBodyBytes = 16 << 20

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned status %d: %s", e.URL, e.Code, e.Body)
}

// GetJSON issues a GET request and decodes the JSON response into out.
// Non-2xx responses return a *StatusError.
func GetJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	body, err := Get(ctx, client, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", url, err)
	}

	return nil
}

// Get issues a GET request and returns the raw response body.
// Non-2xx responses return a *StatusError.
func Get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json, text/html")
	req.Header.Set("User-Agent", "chainlens/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed for %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{Code: resp.StatusCode, URL: url, Body: snippet}
	}

	return body, nil
}
