// Package remote talks to the spreadsheet-backed task API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"project-tracker/internal/log"
)

// Action is a mutation verb understood by the remote API.
type Action string

const (
	ActionUpsert Action = "upsert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Mutation is one write request. OpID lets the remote drop replays.
type Mutation struct {
	Action Action `json:"action"`
	Data   any    `json:"data"`
	OpID   string `json:"opId,omitempty"`
}

// ClientConfig is the configuration of Client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if c.Timeout <= 0 {
		c.Timeout = 8 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "remote.Client"})
	return nil
}

// Client is the remote API client. Every call is bounded by the configured timeout.
type Client struct {
	base    string
	timeout time.Duration
	http    *http.Client
	logger  log.Logger
}

// NewClient returns a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid remote client config: %w", err)
	}
	return &Client{
		base:    cfg.BaseURL,
		timeout: cfg.Timeout,
		http:    cfg.HTTPClient,
		logger:  cfg.Logger,
	}, nil
}

// Read fetches the full task collection as raw records.
func (c *Client) Read(ctx context.Context) ([]map[string]any, error) {
	doc, err := c.get(ctx, "read")
	if err != nil {
		return nil, err
	}
	records, err := rows(doc)
	if err != nil {
		return nil, err
	}
	c.logger.Debugf("read %d records", len(records))
	return records, nil
}

// Ping checks the remote is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "ping")
	return err
}

// Mutate sends a write request.
func (c *Client) Mutate(ctx context.Context, m Mutation) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("could not encode mutation: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not build request: %w", err)
	}
	// The spreadsheet script only accepts simple requests.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	doc, err := c.do(req)
	if err != nil {
		return err
	}
	if err := rejection.Validate(doc); err == nil {
		return fmt.Errorf("%w: %s", ErrRejected, message(doc))
	}
	c.logger.Debugf("%s sent (op %s)", m.Action, m.OpID)
	return nil
}

func (c *Client) get(ctx context.Context, action string) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(c.base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (any, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &NetworkError{Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrRejected, err)
	}
	return doc, nil
}
