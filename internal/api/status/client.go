package status

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19tube/internal/app/notification"
)

// Client reads the status API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL. httpClient may be nil.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]string
	if err := c.get(ctx, "/healthz", &out); err != nil {
		return err
	}
	if out["status"] != "ok" {
		return errors.Newf("unexpected health status %q", out["status"])
	}
	return nil
}

// Queue fetches the queue.
func (c *Client) Queue(ctx context.Context) (*Queue, error) {
	var q Queue
	if err := c.get(ctx, "/api/queue", &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// History fetches the recent announcements.
func (c *Client) History(ctx context.Context) ([]notification.Notification, error) {
	var items []notification.Notification
	if err := c.get(ctx, "/api/history", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("GET %s: unexpected status %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "GET %s: failed to decode response", path)
	}
	return nil
}
