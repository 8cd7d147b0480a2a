// Package persist syncs the wayfinding graph with the graph API.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wayfinder/internal/domain"
)

// API is the remote graph store
type API interface {
	FetchGraph(ctx context.Context) (*domain.Graph, error)
	SaveGraph(ctx context.Context, g *domain.Graph) error
	Regenerate(ctx context.Context) (*domain.Graph, error)
	FetchScenes(ctx context.Context) ([]domain.Scene, error)
}

// Client talks to the graph API over HTTP
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// NewClient creates a client for baseURL (e.g. "http://localhost:8080")
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// errorResponse mirrors the server's error body
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// FetchGraph loads the graph, bypassing any HTTP cache
func (c *Client) FetchGraph(ctx context.Context) (*domain.Graph, error) {
	q := url.Values{"t": {strconv.FormatInt(c.now().UnixMilli(), 10)}}

	var g domain.Graph
	if err := c.do(ctx, http.MethodGet, "/api/graph", q, nil, &g); err != nil {
		return nil, &domain.NetworkError{Op: "fetch graph", Err: err}
	}
	return &g, nil
}

// SaveGraph replaces the stored graph; the server merges it with what it has
func (c *Client) SaveGraph(ctx context.Context, g *domain.Graph) error {
	if err := c.do(ctx, http.MethodPut, "/api/graph", nil, g, nil); err != nil {
		return &domain.NetworkError{Op: "save graph", Err: err}
	}
	return nil
}

// Regenerate asks the server to rebuild the graph from scene hotspots
func (c *Client) Regenerate(ctx context.Context) (*domain.Graph, error) {
	var g domain.Graph
	if err := c.do(ctx, http.MethodPost, "/api/graph/regenerate", nil, nil, &g); err != nil {
		return nil, &domain.NetworkError{Op: "regenerate graph", Err: err}
	}
	return &g, nil
}

// FetchScenes loads scene metadata
func (c *Client) FetchScenes(ctx context.Context) ([]domain.Scene, error) {
	q := url.Values{"t": {strconv.FormatInt(c.now().UnixMilli(), 10)}}

	var scenes []domain.Scene
	if err := c.do(ctx, http.MethodGet, "/api/scenes", q, nil, &scenes); err != nil {
		return nil, &domain.NetworkError{Op: "fetch scenes", Err: err}
	}
	return scenes, nil
}

// Route asks the server for a path
func (c *Client) Route(ctx context.Context, from, to string) ([]string, error) {
	q := url.Values{"from": {from}, "to": {to}}

	var resp struct {
		Path []string `json:"path"`
		Cost float64  `json:"cost"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/route", q, nil, &resp); err != nil {
		return nil, &domain.NetworkError{Op: "route", Err: err}
	}
	return resp.Path, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			if e.Details != "" {
				return fmt.Errorf("%s %s: %d %s: %s", method, path, resp.StatusCode, e.Error, e.Details)
			}
			return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, e.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
