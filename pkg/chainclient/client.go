/**
 * @description
 * This package provides a client for reading the logical clock the escrow rules
 * are measured against: the tip height of the chain node the platform settles on.
 * It encapsulates the authenticated HTTP request to the node's info endpoint and
 * response parsing, and offers a local wall-clock-derived fallback for
 * environments without a reachable node.
 *
 * @dependencies
 * - context, encoding/json, fmt, io, net/http, time: Standard Go libraries.
 */
package chainclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client reads the current chain tip height from a node's HTTP API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new chain node API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TipResponse is the expected response from the node's tip endpoint.
type TipResponse struct {
	Data struct {
		Height int64 `json:"height"`
	} `json:"data"`
}

// ErrorResponse represents an error from the node API.
type ErrorResponse struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Status string `json:"status"`
	} `json:"errors"`
}

func (e *ErrorResponse) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("chain api error: %s - %s", e.Errors[0].Title, e.Errors[0].Detail)
	}
	return "unknown chain api error"
}

// Height fetches the current tip height of the chain.
func (c *Client) Height(ctx context.Context) (int64, error) {
	url := c.BaseURL + "/api/v1/chain/tip"

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create tip request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute tip request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read tip response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil {
			log.Printf("level=warn component=chain_client op=tip status=%d msg=\"non-2xx response (unparsable error body)\"", resp.StatusCode)
			return 0, fmt.Errorf("failed to decode error response (status %d)", resp.StatusCode)
		}
		return 0, &errResp
	}

	var tip TipResponse
	if err := json.Unmarshal(bodyBytes, &tip); err != nil {
		return 0, fmt.Errorf("failed to decode tip response: %w", err)
	}
	if tip.Data.Height < 0 {
		return 0, fmt.Errorf("node returned negative height %d", tip.Data.Height)
	}

	return tip.Data.Height, nil
}

// LocalClock is a fallback clock for environments without a reachable node. It
// derives a monotonically increasing height from elapsed wall time at a fixed
// block interval, which is good enough for local development and demos.
type LocalClock struct {
	start         time.Time
	startHeight   int64
	blockInterval time.Duration
}

// NewLocalClock creates a local clock starting at startHeight that advances one
// block per interval. A non-positive interval defaults to ten seconds.
func NewLocalClock(startHeight int64, interval time.Duration) *LocalClock {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &LocalClock{
		start:         time.Now(),
		startHeight:   startHeight,
		blockInterval: interval,
	}
}

func (c *LocalClock) Height(ctx context.Context) (int64, error) {
	elapsed := time.Since(c.start)
	return c.startHeight + int64(elapsed/c.blockInterval), nil
}
