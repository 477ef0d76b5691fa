// Package api implements the request-response side of the whychat server:
// the one-shot history fetch and the delete endpoint.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"whychat/internal/chat"
)

const defaultTimeout = 10 * time.Second

// Client talks to the whychat HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL (e.g. "http://host:8080").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// FetchHistory returns the prior messages of a conversation, in server order.
// Failures are returned as errors; the caller decides to render empty, so
// absence of history never propagates past the controller.
func (c *Client) FetchHistory(ctx context.Context, conversationID string) ([]chat.Message, error) {
	u := fmt.Sprintf("%s/messages?chat_group_id=%s", c.baseURL, url.QueryEscape(conversationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch history: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read history body: %w", err)
	}

	msgs, err := chat.DecodeHistory(body)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// DeleteMessage asks the server to delete a message. A non-2xx response is an
// error; the caller surfaces it for a user-visible retry decision, nothing is
// retried here.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	u := fmt.Sprintf("%s/messages/%s", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("delete message: unexpected status %d", resp.StatusCode)
	}
	return nil
}
