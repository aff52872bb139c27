// Package thousandeyes is a client for the parts of the ThousandEyes
// v6 REST API the synchroniser needs: agent-to-server network tests
// and the agent list.
package thousandeyes

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

	"github.com/cenkalti/backoff/v5"

	"go.ntppool.org/common/logger"
)

const DefaultAPIURL = "https://api.thousandeyes.com/v6"

type Client struct {
	baseURL string
	email   string
	token   string
	hc      *http.Client

	// 429 retry knobs, shortened in tests
	retryInterval time.Duration
	retryMax      int
}

func New(apiURL, email, token string, hc *http.Client) (*Client, error) {
	if email == "" || token == "" {
		return nil, errors.New("thousandeyes: email and token required")
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL:       strings.TrimSuffix(apiURL, "/"),
		email:         email,
		token:         token,
		hc:            hc,
		retryInterval: 2 * time.Second,
		retryMax:      3,
	}, nil
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Detail     string
}

var apiErrorText = map[int]string{
	http.StatusBadRequest:           "malformed request",
	http.StatusUnauthorized:         "authentication failed",
	http.StatusForbidden:            "insufficient permissions",
	http.StatusNotFound:             "no such endpoint or object",
	http.StatusMethodNotAllowed:     "method not accepted by endpoint",
	http.StatusNotAcceptable:        "content type not acceptable",
	http.StatusUnsupportedMediaType: "unsupported post data format",
	http.StatusTooManyRequests:      "rate limit exceeded",
	http.StatusInternalServerError:  "internal server error",
	http.StatusServiceUnavailable:   "maintenance mode",
}

func (e *APIError) Error() string {
	msg := apiErrorText[e.StatusCode]
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Detail != "" {
		return fmt.Sprintf("thousandeyes: %s (status %d): %s", msg, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("thousandeyes: %s (status %d)", msg, e.StatusCode)
}

// Status checks that the API is up and the credentials work.
func (c *Client) Status(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/status.json", nil, nil)
}

// NetworkTests returns all agent-to-server tests in the account.
func (c *Client) NetworkTests(ctx context.Context) ([]NetworkTest, error) {
	var out struct {
		Test []NetworkTest `json:"test"`
	}
	if err := c.do(ctx, http.MethodGet, "/tests/agent-to-server.json", nil, &out); err != nil {
		return nil, err
	}
	return out.Test, nil
}

// CreateNetworkTest creates the given agent-to-server test.
func (c *Client) CreateNetworkTest(ctx context.Context, test NetworkTest) error {
	return c.do(ctx, http.MethodPost, "/tests/agent-to-server/new.json", test, nil)
}

// DeleteNetworkTest deletes a test by id. Deleting a test that is
// already gone is a success; the end state is what was asked for.
func (c *Client) DeleteNetworkTest(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tests/agent-to-server/%d/delete.json", id), nil, nil)
}

// Agents returns all agents in the account.
func (c *Client) Agents(ctx context.Context) ([]Agent, error) {
	var out struct {
		Agents []Agent `json:"agents"`
	}
	if err := c.do(ctx, http.MethodGet, "/agents.json", nil, &out); err != nil {
		return nil, err
	}
	return out.Agents, nil
}

// do runs one API call, retrying only when the API reports the
// one-minute rate limit. Everything else is the caller's problem.
func (c *Client) do(ctx context.Context, method, endpoint string, payload, result any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = c.retryInterval
	boff.MaxInterval = 30 * time.Second

	for attempt := 0; ; attempt++ {
		err := c.doOnce(ctx, method, endpoint, body, result)

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests && attempt < c.retryMax {
			wait := boff.NextBackOff()
			if wait == backoff.Stop {
				return err
			}
			logger.FromContext(ctx).WarnContext(ctx, "rate limited, waiting",
				"endpoint", endpoint, "wait", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		return err
	}
}

func (c *Client) doOnce(ctx context.Context, method, endpoint string, body []byte, result any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, rdr)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("thousandeyes: %w", err)
	}
	defer resp.Body.Close()

	if method == http.MethodDelete && resp.StatusCode == http.StatusNotFound {
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(resp.Body)}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("thousandeyes: decoding %s: %w", endpoint, err)
	}
	return nil
}

func errorDetail(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))

	var em struct {
		ErrorMessage string `json:"errorMessage"`
	}
	if json.Unmarshal(raw, &em) == nil && em.ErrorMessage != "" {
		return em.ErrorMessage
	}
	return strings.TrimSpace(string(raw))
}
