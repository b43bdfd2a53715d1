package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/syncbox/internal/client/models"
	"github.com/dmitrijs2005/syncbox/internal/common"
)

const maxErrorBody = 4 << 10

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// createRequest is the POST/PATCH body. The local id never leaves the device.
type createRequest struct {
	Title     string `json:"title"`
	Notes     string `json:"notes"`
	Completed bool   `json:"completed"`
	CreatedAt int64  `json:"created_at,omitempty"`
	UpdatedAt int64  `json:"updated_at"`
}

type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

type HTTPOption func(*HTTPClient)

func WithToken(token string) HTTPOption {
	return func(c *HTTPClient) { c.token = token }
}

func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) { c.http = hc }
}

func NewHTTPClient(baseURL string, timeout time.Duration, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) Create(ctx context.Context, key string, p models.Payload) (*Entry, error) {
	body := createRequest{Title: p.Title, Notes: p.Notes, Completed: p.Completed, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
	headers := map[string]string{}
	if key != "" {
		headers[common.IdempotencyKeyHeader] = key
	}

	var e Entry
	if err := c.do(ctx, "create", http.MethodPost, "/api/entries", headers, body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *HTTPClient) Update(ctx context.Context, remoteID int64, p models.Payload) (*Entry, error) {
	body := createRequest{Title: p.Title, Notes: p.Notes, Completed: p.Completed, UpdatedAt: p.UpdatedAt}

	var e Entry
	path := "/api/entries/" + strconv.FormatInt(remoteID, 10)
	if err := c.do(ctx, "update", http.MethodPatch, path, nil, body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *HTTPClient) Delete(ctx context.Context, remoteID int64) error {
	path := "/api/entries/" + strconv.FormatInt(remoteID, 10)
	return c.do(ctx, "delete", http.MethodDelete, path, nil, nil, nil)
}

func (c *HTTPClient) List(ctx context.Context) ([]Entry, error) {
	list := []Entry{}
	if err := c.do(ctx, "list", http.MethodGet, "/api/entries", nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/api/ping", nil, nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, headers map[string]string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &common.NetworkError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &common.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeader, "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &common.NetworkError{Op: op, Err: errors.Join(ErrUnavailable, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &common.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &common.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := strings.TrimSpace(string(raw))
	var env envelope
	if json.Unmarshal(raw, &env) == nil && env.Error != "" {
		msg = env.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	var cause error
	switch resp.StatusCode {
	case http.StatusNotFound:
		cause = fmt.Errorf("%w: %s", common.ErrorNotFound, msg)
	case http.StatusUnauthorized:
		cause = fmt.Errorf("%w: %s", common.ErrorUnauthorized, msg)
	default:
		if resp.StatusCode >= 500 {
			cause = fmt.Errorf("%w: %s", ErrUnavailable, msg)
		} else {
			cause = fmt.Errorf("%w: %s", ErrRejected, msg)
		}
	}
	return &common.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: cause}
}
