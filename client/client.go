// Package client is a typed client of the campus REST API.
//
// Requests carry the bearer token held by a TokenStore. A 401 response clears
// the store, and every non-2xx response is returned as an *APIError.
package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
)

const defaultTimeout = 15 * time.Second

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.rest.HTTPClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.rest.HTTPClient.Timeout = d }
}

type Client struct {
	baseURL string
	tokens  TokenStore
	rest    *rest.Client
}

// New returns a client of the API rooted at baseURL, e.g. http://localhost:5000/api.
func New(baseURL string, store TokenStore, opts ...Option) *Client {
	if store == nil {
		store = NewMemoryTokenStore()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  store,
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: defaultTimeout}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Tokens() TokenStore { return c.tokens }

// do sends body as JSON and decodes the response into out, if not nil.
func (c *Client) do(ctx context.Context, method rest.Method, path string, query map[string]string, body, out interface{}) error {
	req := rest.Request{
		Method:      method,
		BaseURL:     c.baseURL + path,
		Headers:     map[string]string{},
		QueryParams: query,
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		req.Body = data
		req.Headers["Content-Type"] = "application/json"
	}
	return c.send(ctx, req, out)
}

func (c *Client) send(ctx context.Context, req rest.Request, out interface{}) error {
	token, err := c.tokens.Token()
	if err != nil {
		return errors.Wrap(err, "reading token")
	}
	if token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}
	req.Headers["Accept"] = "application/json"

	resp, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.Method, req.BaseURL)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if err = c.tokens.Clear(); err != nil {
			return errors.Wrap(err, "clearing token")
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, resp.Body)
	}

	if out == nil || resp.Body == "" {
		return nil
	}
	return errors.Wrap(json.Unmarshal([]byte(resp.Body), out), "decoding response")
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out interface{}) error {
	return c.do(ctx, rest.Get, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, rest.Post, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, rest.Put, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, rest.Delete, path, nil, nil, nil)
}

// queryParams drops the empty values.
func queryParams(kv ...string) map[string]string {
	q := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			q[kv[i]] = kv[i+1]
		}
	}
	if len(q) == 0 {
		return nil
	}
	return q
}
