package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gametree/searcher"
	"gametree/server"
	"gametree/session"
	"gametree/tree"
)

type Option func(c *Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// Client talks to a running server
type Client struct {
	serverURL string
	http      *http.Client
}

func New(serverURL string, options ...Option) *Client {
	c := &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		http:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// StatusError is returned for any non-2xx response
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

func (c *Client) Draw(ctx context.Context, cfg tree.GenerateConfig) (session.View, error) {
	var view session.View
	err := c.do(ctx, http.MethodPost, "/tree", cfg, &view)
	return view, err
}

func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/tree", nil, nil)
}

func (c *Client) Connect(ctx context.Context, parent, child tree.ID) (session.View, error) {
	var view session.View
	body := map[string]string{"parent": string(parent), "child": string(child)}
	err := c.do(ctx, http.MethodPost, "/tree/edges", body, &view)
	return view, err
}

func (c *Client) Tree(ctx context.Context) (session.View, error) {
	var view session.View
	err := c.do(ctx, http.MethodGet, "/tree", nil, &view)
	return view, err
}

func (c *Client) Evaluate(ctx context.Context, alg searcher.Algorithm) (server.EvaluateResponse, error) {
	var resp server.EvaluateResponse
	body := map[string]string{"algorithm": alg.String()}
	err := c.do(ctx, http.MethodPost, "/evaluate", body, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
