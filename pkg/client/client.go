package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"hoaportal/pkg/logger"
)

// ErrAuthFailed means the token could not be refreshed; the caller must
// log in again. The token store is cleared before this is returned.
var ErrAuthFailed = errors.New("authentication failed")

// DefaultRefreshResultWindow is how long a finished refresh keeps
// answering for late arrivals before a new refresh is attempted.
const DefaultRefreshResultWindow = 10 * time.Second

// Client talks to the portal API, attaching the stored session token
// and transparently refreshing it once when a request comes back 401.
type Client struct {
	baseURL string
	httpc   *http.Client
	store   TokenStore
	gate    refreshGate
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithTokenStore swaps the token store.
func WithTokenStore(s TokenStore) Option {
	return func(c *Client) { c.store = s }
}

// WithRefreshResultWindow overrides the refresh result reuse window.
func WithRefreshResultWindow(d time.Duration) Option {
	return func(c *Client) { c.gate.window = d }
}

// New builds a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		store:   NewMemoryStore(""),
	}
	c.gate.window = DefaultRefreshResultWindow
	c.gate.now = time.Now
	for _, o := range opts {
		o(c)
	}
	return c
}

// TokenStore exposes the client's token store.
func (c *Client) TokenStore() TokenStore { return c.store }

// Do sends the request with the stored token attached. On a 401 it
// refreshes the token, deduplicated across goroutines, and retries the
// request exactly once with the new token. The second response is
// returned as is.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if tok := c.store.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	drain(resp)

	tok, err := c.refresh(req.Context())
	if err != nil {
		return nil, err
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("replay request body: %w", err)
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+tok)
	logger.Debug("request_retry_after_refresh", "method", retry.Method, "url", retry.URL.String())
	return c.httpc.Do(retry)
}

// refreshGate deduplicates concurrent refreshes. While one is in
// flight every caller waits on it; after one finishes its outcome is
// reused for the length of the result window.
type refreshGate struct {
	mu     sync.Mutex
	done   chan struct{}
	token  string
	err    error
	doneAt time.Time
	window time.Duration
	now    func() time.Time
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	g := &c.gate
	g.mu.Lock()
	if g.done == nil && !g.doneAt.IsZero() && g.now().Sub(g.doneAt) < g.window {
		tok, err := g.token, g.err
		g.mu.Unlock()
		return tok, err
	}
	if g.done != nil {
		ch := g.done
		g.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		g.mu.Lock()
		tok, err := g.token, g.err
		g.mu.Unlock()
		return tok, err
	}
	ch := make(chan struct{})
	g.done = ch
	g.mu.Unlock()

	tok, err := c.doRefresh(ctx)

	g.mu.Lock()
	g.token, g.err = tok, err
	g.doneAt = g.now()
	g.done = nil
	g.mu.Unlock()
	close(ch)
	return tok, err
}

// doRefresh exchanges the stored token for a rotated one. Any failure
// clears the store so no further requests go out with a dead token.
func (c *Client) doRefresh(ctx context.Context) (string, error) {
	old := c.store.Token()
	if old == "" {
		return "", ErrAuthFailed
	}
	var out struct {
		Token string `json:"token"`
	}
	body, _ := json.Marshal(map[string]string{"token": old})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/refresh-token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.store.Clear()
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		c.store.Clear()
		logger.Warn("token_refresh_rejected", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: refresh returned %d", ErrAuthFailed, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Token == "" {
		c.store.Clear()
		return "", fmt.Errorf("%w: bad refresh response", ErrAuthFailed)
	}
	c.store.SetToken(out.Token)
	logger.Info("token_refreshed")
	return out.Token, nil
}

// Login authenticates and stores the issued token.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	c.store.SetToken(out.Token)
	return nil
}

// Logout revokes the stored token server side and clears the store.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/logout", nil)
	if err != nil {
		return err
	}
	resp, err := c.Do(req)
	if err == nil {
		drain(resp)
	}
	c.store.Clear()
	return err
}

// GetJSON issues an authenticated GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

// PostJSON issues an authenticated POST with a JSON body and decodes
// the response into out when out is non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("api error %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("api error %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
