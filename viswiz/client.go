package viswiz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Version is reported in the User-Agent header of every request.
const Version = "1.0.0"

const (
	// DefaultServer is the production API endpoint.
	DefaultServer = "https://api.viswiz.io"

	// EnvAPIKey and EnvServer are consulted when NewClient is not given an
	// explicit value.
	EnvAPIKey = "VISWIZ_API_KEY"
	EnvServer = "VISWIZ_SERVER"

	repositoryURL       = "https://github.com/viswiz-io/viswiz-go"
	requestTimeout      = 2 * time.Minute
	defaultRetryWaitMin = 1 * time.Second
	defaultRetryWaitMax = 8 * time.Second
)

var defaultUserAgent = fmt.Sprintf("viswiz-go/%s (%s)", Version, repositoryURL)

// Client talks to the VisWiz HTTP API. It is safe for concurrent use.
type Client struct {
	apiKey       string
	baseURL      *url.URL
	http         *http.Client
	logger       *slog.Logger
	userAgent    string
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	uploadRetry  RetryPolicy
}

type options struct {
	server       string
	httpClient   *http.Client
	logger       *slog.Logger
	userAgent    string
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	uploadLimit  *int
}

// Option configures a Client.
type Option func(*options)

// WithServer overrides the API base URL. A missing scheme defaults to https.
func WithServer(server string) Option {
	return func(o *options) { o.server = server }
}

// WithHTTPClient replaces the underlying HTTP client, including its timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger routes request and retry diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithRetryWait bounds the exponential backoff between upload retries.
func WithRetryWait(min, max time.Duration) Option {
	return func(o *options) {
		o.retryWaitMin = min
		o.retryWaitMax = max
	}
}

// WithUploadRetryLimit sets how many extra attempts an image upload gets on
// transient failures. Zero disables upload retries.
func WithUploadRetryLimit(limit int) Option {
	return func(o *options) { o.uploadLimit = &limit }
}

// NewClient builds a Client. An empty apiKey falls back to $VISWIZ_API_KEY;
// when both are empty ErrMissingAPIKey is returned.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = strings.TrimSpace(os.Getenv(EnvAPIKey))
	}
	if key == "" {
		return nil, ErrMissingAPIKey
	}

	server := strings.TrimSpace(o.server)
	if server == "" {
		server = os.Getenv(EnvServer)
	}
	base, err := parseBaseURL(server)
	if err != nil {
		return nil, err
	}

	c := &Client{
		apiKey:       key,
		baseURL:      base,
		http:         o.httpClient,
		logger:       o.logger,
		userAgent:    o.userAgent,
		retryWaitMin: o.retryWaitMin,
		retryWaitMax: o.retryWaitMax,
		uploadRetry:  uploadRetryPolicy,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: requestTimeout}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.retryWaitMin <= 0 {
		c.retryWaitMin = defaultRetryWaitMin
	}
	if c.retryWaitMax < c.retryWaitMin {
		c.retryWaitMax = max(defaultRetryWaitMax, c.retryWaitMin)
	}
	if o.uploadLimit != nil {
		c.uploadRetry.Limit = max(*o.uploadLimit, 0)
	}
	return c, nil
}

// Server returns the resolved API base URL.
func (c *Client) Server() string {
	return c.baseURL.String()
}

// request describes one logical API call.
type request struct {
	method string
	path   string
	body   any
	form   *formBody
	retry  RetryPolicy
}

// formBody is a fully buffered multipart payload so retries can replay it.
type formBody struct {
	data        []byte
	contentType string
}

func (c *Client) do(ctx context.Context, req request, dest any) error {
	contentType := "application/json"
	var payload any
	switch {
	case req.form != nil:
		payload = req.form.data
		contentType = req.form.contentType
	case req.body != nil:
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = encoded
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.method, c.endpoint(req.path), payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("api request", "method", req.method, "path", req.path)

	resp, err := c.retryClient(req.method, req.retry).Do(httpReq)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Method:     req.method,
			Path:       req.path,
			StatusCode: resp.StatusCode,
			Body:       data,
		}
	}
	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) retryClient(method string, policy RetryPolicy) *retryablehttp.Client {
	return &retryablehttp.Client{
		HTTPClient:   c.http,
		Logger:       c.logger,
		RetryWaitMin: c.retryWaitMin,
		RetryWaitMax: c.retryWaitMax,
		RetryMax:     policy.attempts(method),
		CheckRetry:   policy.checkRetry,
		Backoff:      cappedBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
}

// cappedBackoff is retryablehttp.DefaultBackoff bounded by the retry wait
// maximum, which DefaultBackoff ignores when a 429 or 503 carries a
// Retry-After header.
func cappedBackoff(lo, hi time.Duration, attempt int, resp *http.Response) time.Duration {
	return min(retryablehttp.DefaultBackoff(lo, hi, attempt, resp), hi)
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.JoinPath(path).String()
}

// resourcePath joins escaped path segments into an API path such as
// "/projects/abc/builds".
func resourcePath(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(escaped, "/")
}

func parseBaseURL(server string) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		trimmed = DefaultServer
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server %q: %w", server, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server %q: missing host", server)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
