// Package solarwinds is a minimal client for the SolarWinds
// Information Service (SWIS) JSON API. It only implements what the
// synchroniser needs: running SWQL queries with basic auth.
package solarwinds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Orion appliances expose SWIS on this port, almost always with a
// self-signed certificate.
const swisPort = 17778

const swisPath = "/SolarWinds/InformationService/v3/Json/"

type Client struct {
	baseURL  string
	username string
	password string
	hc       *http.Client
}

// New returns a client for the SWIS API on host. host is a hostname
// (the standard port and path are added) or a full base URL.
func New(host, username, password string, hc *http.Client) (*Client, error) {
	if host == "" {
		return nil, errors.New("solarwinds: hostname required")
	}
	if username == "" || password == "" {
		return nil, errors.New("solarwinds: username and password required")
	}
	if hc == nil {
		hc = http.DefaultClient
	}

	base := host
	if !strings.Contains(host, "://") {
		base = fmt.Sprintf("https://%s:%d", host, swisPort)
	}

	return &Client{
		baseURL:  strings.TrimSuffix(base, "/") + swisPath,
		username: username,
		password: password,
		hc:       hc,
	}, nil
}

type queryRequest struct {
	Query      string         `json:"query"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Query runs a SWQL query and decodes the results array into result.
// A nil result discards the rows.
func (c *Client) Query(ctx context.Context, swql string, params map[string]any, result any) error {
	body, err := json.Marshal(queryRequest{Query: swql, Parameters: params})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"Query", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("swis query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("swis query: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var wrapper struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return fmt.Errorf("swis response: %w", err)
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(wrapper.Results, result); err != nil {
		return fmt.Errorf("swis results: %w", err)
	}
	return nil
}

// Status runs a trivial query to check reachability and credentials.
func (c *Client) Status(ctx context.Context) error {
	return c.Query(ctx, "SELECT TOP 1 Name FROM Metadata.Entity", nil, nil)
}
