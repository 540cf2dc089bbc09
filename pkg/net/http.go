package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound marks a 404 from the upstream.
var ErrNotFound = errors.New("URL not found")

// GetJSON retrieves the URL with the given client and decodes the
// response body into target. A nil client gets the shared default.
func GetJSON[T any](ctx context.Context, client *http.Client, url string, target *T) error {
	resp, err := getResp(ctx, client, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d (%s) from %s", resp.StatusCode, resp.Status, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("error decoding content from %s: %w", url, err)
	}
	return nil
}

func getResp(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	if client == nil {
		c, err := GetHTTPClient()
		if err != nil {
			return nil, fmt.Errorf("error creating HTTP client: %w", err)
		}
		client = c
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP Get request: %w", err)
	}
	req.Header.Set("User-Agent", clientAgent)

	return client.Do(req)
}
