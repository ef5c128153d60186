// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog talks to the remote open-data catalog: a REST store of
// dataset records addressed by slug, plus the resource reconciliation that
// keeps a record's download links in step with the published output tree.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meshintel/geopublish/pkg/types"
)

// ErrNotFound reports that a dataset or group does not exist on the
// catalog. It is an expected outcome, not a failure: a missing dataset
// triggers the create path.
var ErrNotFound = errors.New("not found on catalog")

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "geopublish/0.1"
)

// Client is a catalog REST API client. Calls are synchronous, unretried and
// at-most-once.
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string
	http      *http.Client
}

// NewClient builds a client from the catalog configuration.
func NewClient(cfg types.CatalogConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.APIURL, "/"),
		apiKey:    cfg.APIKey,
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

// Get fetches the dataset record with the given id, or ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (*types.Record, error) {
	var rec types.Record
	if err := c.do(ctx, http.MethodGet, c.packageURL(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create registers a new dataset record on the catalog.
func (c *Client) Create(ctx context.Context, rec *types.Record) error {
	return c.do(ctx, http.MethodPost, c.baseURL+"/rest/package", rec, nil)
}

// Update replaces an existing dataset record on the catalog.
func (c *Client) Update(ctx context.Context, rec *types.Record) error {
	return c.do(ctx, http.MethodPut, c.packageURL(rec.Name), rec, nil)
}

// GetGroup fetches the group with the given name, or ErrNotFound.
func (c *Client) GetGroup(ctx context.Context, name string) (*types.Group, error) {
	var group types.Group
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/rest/group/"+url.PathEscape(name), nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (c *Client) packageURL(id string) string {
	return c.baseURL + "/rest/package/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("catalog returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding catalog response: %w", err)
		}
	}
	return nil
}
