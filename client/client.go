// Package client provides a typed Go SDK for the botlist.space REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Client defaults.
const (
	defaultBaseURL    = "https://api.botlist.space"
	defaultVersion    = 1
	defaultStatsLimit = 3
	defaultUserAgent  = "go-botlist (https://github.com/botlistspace/go-botlist)"
)

// Client is the top-level botlist.space API client.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	token      string
	botID      string
	version    int
	cache      bool
	statsLimit int
	userAgent  string
	httpClient *http.Client
	log        *logrus.Logger

	botCache     map[string]*Bot
	userCache    map[string]*User
	statsHistory []*Stats

	Bots  *BotService
	Users *UserService
	Stats *StatsService
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the API token used for authenticated requests.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithBotID sets the bot ID substituted when an operation targeting the
// configured bot is called with an empty ID.
func WithBotID(id string) Option {
	return func(c *Client) { c.botID = id }
}

// WithCache enables or disables entity caching as the client-wide default.
func WithCache(enabled bool) Option {
	return func(c *Client) { c.cache = enabled }
}

// WithStatsLimit sets how many statistics snapshots are retained. Negative
// values are treated as zero. Shrinking the limit below the retained count
// evicts oldest snapshots immediately when applied through Edit.
func WithStatsLimit(n int) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.statsLimit = n
	}
}

// WithVersion sets the API version used when a call does not override it.
func WithVersion(v int) Option {
	return func(c *Client) {
		if v > 0 {
			c.version = v
		}
	}
}

// WithBaseURL overrides the API base URL. Intended for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithUserAgent overrides the User-Agent sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets a logger for request-level debug logging.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a botlist.space client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		version:    defaultVersion,
		statsLimit: defaultStatsLimit,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		botCache:   make(map[string]*Bot),
		userCache:  make(map[string]*User),
	}
	for _, o := range opts {
		o(c)
	}
	c.Bots = &BotService{c: c}
	c.Users = &UserService{c: c}
	c.Stats = &StatsService{c: c}
	return c
}

// Edit re-applies configuration options to a live client. Options compose
// onto the current configuration; anything not set by an option keeps its
// value. Shrinking the stats limit trims retained snapshots at once.
func (c *Client) Edit(opts ...Option) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range opts {
		o(c)
	}
	c.trimStatsLocked()
}

// FetchOptions overrides client defaults for a single call. A nil pointer or
// zero field means "use the client configuration".
type FetchOptions struct {
	// Cache overrides the client-wide cache flag for this call.
	Cache *bool
	// Version overrides the API version for this call (0 keeps the default).
	Version int
	// Token overrides the API token for this call ("" keeps the default).
	Token string
}

// ListOptions extends FetchOptions with pagination for list endpoints.
type ListOptions struct {
	FetchOptions
	// Page is the 1-based result page. Zero omits the parameter.
	Page int
}

// callConfig is a fully resolved per-call configuration.
type callConfig struct {
	cache   bool
	version int
	token   string
}

// resolve layers a per-call override over the client configuration.
func (c *Client) resolve(opts *FetchOptions) callConfig {
	c.mu.RLock()
	cfg := callConfig{cache: c.cache, version: c.version, token: c.token}
	c.mu.RUnlock()

	if opts == nil {
		return cfg
	}
	if opts.Cache != nil {
		cfg.cache = *opts.Cache
	}
	if opts.Version > 0 {
		cfg.version = opts.Version
	}
	if opts.Token != "" {
		cfg.token = opts.Token
	}
	return cfg
}

// do executes an HTTP request against the versioned API and returns the raw
// response body. Response classification is identical for every verb.
func (c *Client) do(ctx context.Context, method, path string, cfg callConfig, params url.Values, body any) ([]byte, error) {
	c.mu.RLock()
	base := c.baseURL
	ua := c.userAgent
	hc := c.httpClient
	c.mu.RUnlock()

	u := fmt.Sprintf("%s/v%d%s", base, cfg.version, path)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", ua)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cfg.token != "" {
		req.Header.Set("Authorization", cfg.token)
	}

	c.debug(logrus.Fields{"method": method, "path": path, "version": cfg.version}, "api request")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := classify(resp.StatusCode, resp.Header, path, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// get is a convenience wrapper for GET requests with query parameters.
func (c *Client) get(ctx context.Context, path string, cfg callConfig, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, cfg, params, nil)
}

// post is a convenience wrapper for POST requests with a JSON body.
func (c *Client) post(ctx context.Context, path string, cfg callConfig, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, cfg, nil, body)
}

// defaultBotID returns the configured bot ID fallback.
func (c *Client) defaultBotID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.botID
}

func (c *Client) debug(fields logrus.Fields, msg string) {
	if c.log != nil {
		c.log.WithFields(fields).Debug(msg)
	}
}
