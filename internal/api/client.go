// Package api is the HTTP gateway to the task backend. It translates task
// and contact operations into JSON requests and normalizes the responses.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"

	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
)

// Options configures a Client. Zero values pick sensible defaults.
type Options struct {
	// Timeout bounds every request, including a refresh-and-retry round trip.
	Timeout time.Duration
	// Jar holds the session cookies. A fresh jar is created when nil.
	Jar http.CookieJar
	// Transport is the underlying round tripper (http.DefaultTransport when nil).
	Transport http.RoundTripper
	// OnExpired runs when the backend rejects a session refresh after a 401.
	// Canceled callers and transport errors during the refresh do not trigger it.
	OnExpired func()
	Logger    *slog.Logger
}

// Client talks to the backend. All requests carry the session cookies.
type Client struct {
	rest    *resty.Client
	baseURL *url.URL
	jar     http.CookieJar
	logger  *slog.Logger
}

// NewJar returns a cookie jar suitable for Options.Jar.
func NewJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// New creates a Client for the API rooted at baseURL (e.g. "http://host/api").
func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, clierr.Newf(clierr.InvalidInput, "invalid base URL %q", baseURL).
			WithDetails(map[string]any{"base_url": baseURL})
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	jar := opts.Jar
	if jar == nil {
		if jar, err = NewJar(); err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	rt := &refreshTransport{
		base:       base,
		jar:        jar,
		refreshURL: u.String() + "/refresh/",
		onExpired:  opts.OnExpired,
		timeout:    opts.Timeout,
		logger:     logger,
	}

	rest := resty.New().
		SetBaseURL(u.String()).
		SetCookieJar(jar).
		SetTransport(rt).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		rest.SetTimeout(opts.Timeout)
	}

	return &Client{rest: rest, baseURL: u, jar: jar, logger: logger}, nil
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Cookies returns the session cookies the jar would send to the API.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.cookieURL())
}

// RestoreCookies seeds the jar with previously saved session cookies.
func (c *Client) RestoreCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	u := c.cookieURL()
	for _, ck := range cookies {
		if ck.Path == "" {
			ck.Path = u.Path
		}
	}
	c.jar.SetCookies(u, cookies)
}

func (c *Client) cookieURL() *url.URL {
	u := *c.baseURL
	if u.Path == "" {
		u.Path = "/"
	} else if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &u
}

// do sends one request. body is encoded as JSON when non-nil and the
// response is decoded into out when out is non-nil and the body is not empty.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.rest.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return clierr.Wrap(clierr.TransportFailure,
			fmt.Sprintf("%s %s: %v", method, path, err), err).
			WithDetails(map[string]any{"method": method, "path": path})
	}

	c.logger.Debug("request done", "method", method, "path", path, "status", resp.StatusCode())

	if resp.IsError() {
		return statusError(method, path, resp.StatusCode(), resp.String())
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return clierr.Wrap(clierr.TransportFailure,
			fmt.Sprintf("%s %s: decoding response: %v", method, path, err), err).
			WithDetails(map[string]any{"method": method, "path": path})
	}
	return nil
}

func statusError(method, path string, status int, body string) *clierr.Error {
	code := clierr.TransportFailure
	if status == http.StatusUnauthorized {
		code = clierr.AuthFailure
	}
	const maxBody = 200
	if len(body) > maxBody {
		cut := maxBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	msg := fmt.Sprintf("%s %s -> %d", method, path, status)
	if body = strings.TrimSpace(body); body != "" {
		msg += ": " + body
	}
	return clierr.New(code, msg).WithDetails(map[string]any{
		"method": method,
		"path":   path,
		"status": status,
	})
}

// StatusCode returns the HTTP status carried by a gateway error, or 0.
func StatusCode(err error) int {
	var e *clierr.Error
	if !errors.As(err, &e) || e.Details == nil {
		return 0
	}
	status, _ := e.Details["status"].(int)
	return status
}
