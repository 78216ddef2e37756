package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxErrorBody bounds how much of a rejected response is read for its message.
const maxErrorBody = 64 << 10

// ObserveFunc is called once per backend round trip with the route template
// (e.g. "/items/{id}") and the elapsed time.
type ObserveFunc func(method, route string, elapsed time.Duration)

// Client talks to the inventory backend REST API. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observe    ObserveFunc
}

// ClientOption configures optional Client settings.
type ClientOption func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithObserver registers a callback for request timings.
func WithObserver(fn ObserveFunc) ClientOption {
	return func(c *Client) {
		c.observe = fn
	}
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(transport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return fmt.Sprintf("Backend API: %s %s", r.Method, r.URL.Path)
				}),
			),
			Timeout: timeout,
		},
		observe: func(string, string, time.Duration) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a session token. A response whose body
// statusCode is not 200 is returned as an *APIError carrying the body message.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	resp, err := c.send(ctx, http.MethodPost, "/auth/login", "/auth/login", "", creds)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", &APIError{Status: resp.StatusCode}
		}
		return "", fmt.Errorf("%w: decoding login response: %v", ErrUnexpectedResponse, err)
	}

	if body.StatusCode != http.StatusOK {
		status := body.StatusCode
		if status == 0 {
			status = resp.StatusCode
		}
		return "", &APIError{Status: status, Message: body.Message}
	}
	if body.Data.Token == "" {
		return "", fmt.Errorf("%w: login response has no token", ErrUnexpectedResponse)
	}

	return body.Data.Token, nil
}

// ListItems returns all inventory items. The endpoint needs no bearer token.
func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	var out listResponse[Item]
	if err := c.do(ctx, http.MethodGet, "/items", "/items", "", nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []Item{}
	}
	return out.Data, nil
}

// AddItem creates an item.
func (c *Client) AddItem(ctx context.Context, token string, in ItemInput) error {
	return c.do(ctx, http.MethodPost, "/items/add", "/items/add", token, in, nil)
}

// UpdateItem replaces the fields of item id.
func (c *Client) UpdateItem(ctx context.Context, token string, id int64, in ItemInput) error {
	return c.do(ctx, http.MethodPut, itemPath(id), "/items/{id}", token, in, nil)
}

// DeleteItem removes item id.
func (c *Client) DeleteItem(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, itemPath(id), "/items/{id}", token, nil, nil)
}

// ListUsers returns all user accounts.
func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	var out listResponse[User]
	if err := c.do(ctx, http.MethodGet, "/users", "/users", token, nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []User{}
	}
	return out.Data, nil
}

// RegisterUser creates a user account.
func (c *Client) RegisterUser(ctx context.Context, token string, in UserInput) error {
	return c.do(ctx, http.MethodPost, "/auth/register", "/auth/register", token, in, nil)
}

// UpdateUser replaces the fields of user id.
func (c *Client) UpdateUser(ctx context.Context, token string, id int64, in UserInput) error {
	return c.do(ctx, http.MethodPut, userPath(id), "/users/{id}", token, in, nil)
}

// DeleteUser removes user id.
func (c *Client) DeleteUser(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, userPath(id), "/users/{id}", token, nil, nil)
}

// Connectivity is the result of a reachability probe.
type Connectivity struct {
	Reachable bool
	Status    int
}

// CheckConnectivity probes GET /items. Any HTTP response counts as reachable.
func (c *Client) CheckConnectivity(ctx context.Context) Connectivity {
	resp, err := c.send(ctx, http.MethodGet, "/items", "/items", "", nil)
	if err != nil {
		return Connectivity{}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return Connectivity{Reachable: true, Status: resp.StatusCode}
}

func (c *Client) do(ctx context.Context, method, path, route, token string, in, out any) error {
	resp, err := c.send(ctx, method, path, route, token, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return rejection(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s %s: %v", ErrUnexpectedResponse, method, route, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path, route, token string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.observe(method, route, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("calling %s %s: %w", method, route, err)
	}
	return resp, nil
}

// rejection builds an APIError from a non-2xx response, using the optional
// {"message": "..."} body.
func rejection(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(raw) > 0 {
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil {
			apiErr.Message = eb.Message
		}
	}
	return apiErr
}

func itemPath(id int64) string {
	return "/items/" + strconv.FormatInt(id, 10)
}

func userPath(id int64) string {
	return "/users/" + strconv.FormatInt(id, 10)
}
