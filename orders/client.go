package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	errs "github.com/acheron-labs/voidmarket/internal/errors"
)

// Client talks to the bearer-authenticated order endpoints. Callers pass the
// Authorization header value for each request; the client holds no session
// state of its own.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client (primarily for testing).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates an orders client for the given API base URL.
func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		validate:   validator.New(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// List fetches the caller's orders, newest first, at the server's default
// page size.
func (c *Client) List(ctx context.Context, authHeader string) ([]Order, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/orders", authHeader, nil)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []Order
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, errs.Wrapf(err, "decode order list")
		}
		return list, nil
	}

	var page struct {
		Content []Order `json:"content"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, errs.Wrapf(err, "decode paged order list")
	}
	return page.Content, nil
}

// Create places an order. The request is validated locally before any
// network traffic so a malformed cart never reaches the server.
func (c *Client) Create(ctx context.Context, authHeader string, req CreateRequest) (*Order, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, errs.Wrapf(errs.ErrInvalidRequest, "%v", err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errs.Wrapf(err, "encode order request")
	}

	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/orders", authHeader, payload)
	if err != nil {
		return nil, err
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, errs.Wrapf(err, "decode created order")
	}
	return &order, nil
}

// Cancel requests cancellation of a pending order.
func (c *Client) Cancel(ctx context.Context, authHeader, orderID string) (*Order, error) {
	url := fmt.Sprintf("%s/orders/%s/cancel", c.baseURL, orderID)
	body, err := c.do(ctx, http.MethodPatch, url, authHeader, nil)
	if err != nil {
		return nil, err
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, errs.Wrapf(err, "decode cancelled order")
	}
	return &order, nil
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context, authHeader string) (*Me, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/me", authHeader, nil)
	if err != nil {
		return nil, err
	}

	var me Me
	if err := json.Unmarshal(body, &me); err != nil {
		return nil, errs.Wrapf(err, "decode profile")
	}
	return &me, nil
}

func (c *Client) do(ctx context.Context, method, url, authHeader string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, errs.Wrapf(err, "build request %q", url)
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrUnavailable, "%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errs.Wrapf(errs.ErrUnauthorized, "%s %s", method, url)
	case resp.StatusCode == http.StatusNotFound:
		return nil, errs.Wrapf(errs.ErrNotFound, "%s %s", method, url)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errs.Wrapf(errs.ErrUnavailable, "%s %s: status %d", method, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrapf(err, "read response body")
	}
	return body, nil
}
