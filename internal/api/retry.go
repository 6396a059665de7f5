package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// RetryHeader marks a request that has already been replayed after a refresh.
const RetryHeader = "X-Retry"

var refreshLikePath = regexp.MustCompile(`(?i)/(login|refresh|logout)/?$`)

var publicAuthPaths = []string{"/login/", "/register/"}

// defaultRefreshTimeout bounds a refresh when the client has no timeout.
const defaultRefreshTimeout = 30 * time.Second

// refreshRejectedError is a refresh the backend answered with a non-2xx
// status. Only this ends the session.
type refreshRejectedError struct {
	status int
}

func (e *refreshRejectedError) Error() string {
	return fmt.Sprintf("refresh returned %d", e.status)
}

// refreshTransport replays a request once after a 401 if the session can be
// refreshed. Auth endpoints and already-replayed requests pass through.
type refreshTransport struct {
	base       http.RoundTripper
	jar        http.CookieJar
	refreshURL string
	onExpired  func()
	timeout    time.Duration
	logger     *slog.Logger

	refreshes singleflight.Group
}

// RoundTrip implements http.RoundTripper.
func (t *refreshTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || !t.retryable(req) {
		return resp, err
	}

	t.logger.Debug("access rejected, refreshing session", "path", req.URL.Path)

	// Concurrent 401s share one refresh call, detached from whichever caller
	// started it. Each caller still stops waiting when its own context ends.
	ch := t.refreshes.DoChan("refresh", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), t.refreshTimeout())
		defer cancel()
		return nil, t.refresh(ctx)
	})

	var refreshErr error
	select {
	case res := <-ch:
		refreshErr = res.Err
	case <-req.Context().Done():
		drainAndClose(resp.Body)
		return nil, req.Context().Err()
	}

	if refreshErr != nil {
		t.logger.Debug("session refresh failed", "error", refreshErr)
		var rejected *refreshRejectedError
		if !errors.As(refreshErr, &rejected) {
			drainAndClose(resp.Body)
			return nil, fmt.Errorf("refreshing session: %w", refreshErr)
		}
		if t.onExpired != nil {
			t.onExpired()
		}
		return resp, nil
	}

	retry, err := t.replay(req)
	if err != nil {
		t.logger.Debug("cannot replay request", "path", req.URL.Path, "error", err)
		return resp, nil
	}
	drainAndClose(resp.Body)

	return t.base.RoundTrip(retry)
}

func (t *refreshTransport) refreshTimeout() time.Duration {
	if t.timeout > 0 {
		return t.timeout
	}
	return defaultRefreshTimeout
}

func (t *refreshTransport) retryable(req *http.Request) bool {
	if req.Header.Get(RetryHeader) != "" {
		return false
	}
	path := req.URL.Path
	if refreshLikePath.MatchString(path) {
		return false
	}
	for _, p := range publicAuthPaths {
		if strings.Contains(path, p) {
			return false
		}
	}
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func (t *refreshTransport) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.refreshURL, strings.NewReader("{}"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for _, c := range t.jar.Cookies(req.URL) {
		req.AddCookie(c)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &refreshRejectedError{status: resp.StatusCode}
	}
	if cookies := resp.Cookies(); len(cookies) > 0 {
		t.jar.SetCookies(req.URL, cookies)
	}
	return nil
}

// replay clones req with a fresh body, the retry marker and the cookies the
// jar holds after the refresh.
func (t *refreshTransport) replay(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	retry.Header.Set(RetryHeader, "1")
	retry.Header.Del("Cookie")
	for _, c := range t.jar.Cookies(req.URL) {
		retry.AddCookie(c)
	}
	return retry, nil
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
