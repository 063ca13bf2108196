package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	errs "github.com/acheron-labs/voidmarket/internal/errors"
)

const defaultPageSize = 50

// Client reads the public catalog endpoints of the resource server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	pageSize   int
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client (primarily for testing).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithPageSize overrides the requested product page size.
func WithPageSize(size int) ClientOption {
	return func(c *Client) {
		c.pageSize = size
	}
}

// NewClient creates a catalog client for the given API base URL
// (e.g. "http://localhost:8080/api").
func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		pageSize:   defaultPageSize,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Products fetches one page of products at the server's default ordering.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	url := fmt.Sprintf("%s/products?size=%d", c.baseURL, c.pageSize)
	return fetchList[Product](ctx, c.httpClient, url)
}

// Categories fetches the category list.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	return fetchList[Category](ctx, c.httpClient, c.baseURL+"/categories")
}

func fetchList[T any](ctx context.Context, client *http.Client, url string) ([]T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrapf(err, "build request %q", url)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrUnavailable, "GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.Wrapf(errs.ErrUnavailable, "GET %s: status %d", url, resp.StatusCode)
	}

	return decodeList[T](resp.Body)
}

// decodeList accepts either a bare JSON array or the resource server's
// {content: [...]} page wrapper.
func decodeList[T any](r io.Reader) ([]T, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrapf(err, "read response body")
	}

	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []T
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, errs.Wrapf(err, "decode list response")
		}
		return list, nil
	}

	var page struct {
		Content []T `json:"content"`
	}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, errs.Wrapf(err, "decode paged response")
	}
	return page.Content, nil
}
