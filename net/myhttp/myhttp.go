// The myhttp package provides the HTTP client of the application.
// It sets the same user agent on each request, throttles requests sent to the
// catalog services and returns whole response bodies.

package myhttp

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/time/rate"

	"github.com/simulot/aspiravod/mylog"
)

// UserAgent default
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Error is returned when the server answers with an error status
type Error struct {
	URL        string
	StatusCode int
	Message    string // beginning of the response body
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %d %s %q", e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Client is the classic http client with a cookie jar, a given user agent string and a rate limiter
type Client struct {
	client    *http.Client
	transport http.RoundTripper
	limiter   *rate.Limiter
	userAgent string
	timeout   time.Duration
	log       *mylog.MyLog
}

// WithTransport replaces the default transport, tests use it to serve files
func WithTransport(rt http.RoundTripper) func(c *Client) {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithUserAgent is configuration function to give a user agent string to the client
func WithUserAgent(ua string) func(c *Client) {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLimiter sets the rate limiter applied to every request
func WithLimiter(l *rate.Limiter) func(c *Client) {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithTimeout sets the timeout of each request
func WithTimeout(d time.Duration) func(c *Client) {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger
func WithLogger(l *mylog.MyLog) func(c *Client) {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient create an HTTP Client and configure it with a set of config functions
func NewClient(conf ...func(c *Client)) *Client {
	c := &Client{
		transport: http.DefaultTransport,
		userAgent: UserAgent,
		timeout:   30 * time.Second,
	}
	for _, f := range conf {
		f(c)
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Every(300*time.Millisecond), 5)
	}
	jar, _ := cookiejar.New(nil)
	c.client = &http.Client{
		Transport: c.Transport(),
		Jar:       jar,
		Timeout:   c.timeout,
	}
	return c
}

// Transport returns a round tripper that applies the client's user agent and rate limiter.
// The HTML parsers use it to share the same policy.
func (c *Client) Transport() http.RoundTripper {
	return &limitedTransport{
		base:      c.transport,
		limiter:   c.limiter,
		userAgent: c.userAgent,
	}
}

// Jar returns the client's cookie jar
func (c *Client) Jar() http.CookieJar {
	return c.client.Jar
}

// UserAgentString returns the user agent sent with requests
func (c *Client) UserAgentString() string {
	return c.userAgent
}

// Fetch gets the url and returns the whole response body
func (c *Client) Fetch(ctx context.Context, u string) ([]byte, error) {
	c.log.Debug().Printf("[HTTPCLIENT] GET %s", u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("can't create request: %w", err)
	}
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("can't get %s: %w", u, err)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("can't read %s: %w", u, err)
		}
		defer gz.Close()
		body = gz
	}

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(body, 512))
		return nil, Error{
			URL:        u,
			StatusCode: resp.StatusCode,
			Message:    string(b),
		}
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("can't read %s: %w", u, err)
	}
	c.log.Debug().Printf("[HTTPCLIENT] ... Response: %s(%d), %d bytes", http.StatusText(resp.StatusCode), resp.StatusCode, len(b))
	return b, nil
}

type limitedTransport struct {
	base      http.RoundTripper
	limiter   *rate.Limiter
	userAgent string
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	if req.Header.Get("User-Agent") == "" && t.userAgent != "" {
		// RoundTrippers must not modify the caller's request
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}
