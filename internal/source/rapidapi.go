// Package source fetches raw posting records from an external RapidAPI-style
// job board API. Records come back as loose JSON objects; normalization
// happens downstream in the ingestion pipeline.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// MaxFetchLimit caps how many records one fetch may request.
const MaxFetchLimit = 200

const defaultTimeout = 30 * time.Second

// FetchError reports a failed fetch from the external API.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch from %s failed with status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch from %s failed: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client talks to the external job API.
type Client struct {
	baseURL    string
	apiKey     string
	apiHost    string
	httpClient *http.Client
}

// NewClient builds a client. baseURL is the full endpoint URL; apiKey and
// apiHost fill the RapidAPI auth headers.
func NewClient(baseURL, apiKey, apiHost string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		apiHost:    apiHost,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// IsConfigured reports whether the client has enough configuration to
// fetch.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// Fetch retrieves up to limit raw records. The limit is clamped to
// [1, MaxFetchLimit].
func (c *Client) Fetch(ctx context.Context, limit int) ([]map[string]any, error) {
	if !c.IsConfigured() {
		return nil, &FetchError{URL: c.baseURL, Err: fmt.Errorf("external API is not configured")}
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > MaxFetchLimit {
		limit = MaxFetchLimit
	}

	reqURL, err := c.buildURL(limit)
	if err != nil {
		return nil, &FetchError{URL: c.baseURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FetchError{URL: reqURL, Err: err}
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	if c.apiHost != "" {
		req.Header.Set("X-RapidAPI-Host", c.apiHost)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: reqURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: reqURL, Err: err}
	}

	records, err := parseRecords(body)
	if err != nil {
		return nil, &FetchError{URL: reqURL, Err: err}
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (c *Client) buildURL(limit int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseRecords accepts either a bare JSON array of records or an object
// wrapping the array under a well-known key.
func parseRecords(body []byte) ([]map[string]any, error) {
	var bare []map[string]any
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("response is neither an array nor an object: %w", err)
	}
	for _, key := range []string{"jobs", "data", "results", "items"} {
		raw, ok := wrapped[key]
		if !ok {
			continue
		}
		var records []map[string]any
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("field %q is not a record array: %w", key, err)
		}
		return records, nil
	}
	return nil, fmt.Errorf("no record array found in response")
}
