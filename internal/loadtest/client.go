package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Client talks to the swing service over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

// Health checks that the service answers on /healthz.
func (c *Client) Health(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check returned %d", status)
	}
	return nil
}

// Submit posts a swing. The status code is returned alongside the ack so
// callers can count backpressure.
func (c *Client) Submit(ctx context.Context, req SwingRequest) (Ack, int, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/analyses", req)
	if err != nil {
		return Ack{}, 0, err
	}
	var ack Ack
	if status == http.StatusAccepted || status == http.StatusOK {
		if err := json.Unmarshal(body, &ack); err != nil {
			return Ack{}, status, fmt.Errorf("decode ack: %w", err)
		}
	}
	return ack, status, nil
}

// Analysis fetches one analysis.
func (c *Client) Analysis(ctx context.Context, id string) (Analysis, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/analyses/"+id, nil)
	if err != nil {
		return Analysis{}, err
	}
	if status != http.StatusOK {
		return Analysis{}, fmt.Errorf("analysis %s returned %d", id, status)
	}
	var a Analysis
	if err := json.Unmarshal(body, &a); err != nil {
		return Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	return a, nil
}

// Leaderboard fetches the top n players.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]Entry, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/leaderboard?limit="+strconv.Itoa(n), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("leaderboard returned %d: %s", status, body)
	}
	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return entries, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any) (int, []byte, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, out, nil
}
