// Package remote calls a hosted inference endpoint that summarizes raw text.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the hosted inference API root.
	DefaultBaseURL = "https://api-inference.huggingface.co"
	contentType    = "application/json"
)

// ErrUnexpectedFormat marks a 200 response whose body does not match the
// documented shape.
var ErrUnexpectedFormat = errors.New("unexpected API response format")

// StatusError is returned for any non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status code %d: %s", e.StatusCode, e.Body)
}

// Config is the immutable remote endpoint configuration.
type Config struct {
	URL         string
	APIKey      string
	ContentType string
	// Timeout bounds each call; zero means the call may block indefinitely.
	Timeout time.Duration
}

// EndpointURL derives the model endpoint from the API root and a model id.
func EndpointURL(base, modelID string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/models/" + modelID
}

// NewConfig builds a Config for modelID served under base.
func NewConfig(base, modelID, apiKey string, timeout time.Duration) Config {
	return Config{
		URL:         EndpointURL(base, modelID),
		APIKey:      apiKey,
		ContentType: contentType,
		Timeout:     timeout,
	}
}

// Client posts text to the remote endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a client. Calls are bounded by cfg.Timeout when it is set.
func NewClient(cfg Config) *Client {
	if cfg.ContentType == "" {
		cfg.ContentType = contentType
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Config returns the client's configuration.
func (c *Client) Config() Config { return c.cfg }

type summarizeRequest struct {
	Inputs string `json:"inputs"`
}

type summaryItem struct {
	SummaryText *string `json:"summary_text"`
}

// Summarize sends the raw text and returns the first summary_text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(summarizeRequest{Inputs: text})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", c.cfg.ContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return parseSummary(respBody)
}

// parseSummary accepts only a non-empty array whose first element is an object
// with a string summary_text.
func parseSummary(body []byte) (string, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil || len(items) == 0 {
		return "", ErrUnexpectedFormat
	}
	var first summaryItem
	if err := json.Unmarshal(items[0], &first); err != nil || first.SummaryText == nil {
		return "", ErrUnexpectedFormat
	}
	return *first.SummaryText, nil
}
