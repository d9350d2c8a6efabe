// Package control is a client for the capture queue control API.
package control

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

	"plotterctl/model"
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// ListCommands fetches one page of commands. The query is normalized first so
// negative pages and filter codes are sent as 0.
func (c *Client) ListCommands(ctx context.Context, q model.PageQuery) (model.PageResult, error) {
	var result model.PageResult
	q = q.Normalize()
	if err := c.do(ctx, http.MethodPost, "/control", q, &result); err != nil {
		return model.PageResult{}, fmt.Errorf("list commands: %w", err)
	}
	return result, nil
}

// CancelCommand withdraws a pending command.
func (c *Client) CancelCommand(ctx context.Context, id int64) error {
	path := "/control/command?" + url.Values{"id": {strconv.FormatInt(id, 10)}}.Encode()
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("cancel command %d: %w", id, err)
	}
	return nil
}

// QueueCommand asks the server to queue a new capture.
func (c *Client) QueueCommand(ctx context.Context, req model.QueueRequest) error {
	if err := c.do(ctx, http.MethodPost, "/control/command", req, nil); err != nil {
		return fmt.Errorf("queue command: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
