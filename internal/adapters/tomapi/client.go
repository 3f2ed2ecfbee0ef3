// Package tomapi is an HTTP client for the TOM observation API.
package tomapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/tomobs/tom-portal/internal/domain/auth"
	apperrors "github.com/tomobs/tom-portal/internal/errors"
	"github.com/tomobs/tom-portal/internal/observability/metrics"
	"github.com/tomobs/tom-portal/internal/observability/statsd"
	"golang.org/x/net/publicsuffix"
)

// DefaultAuthScheme is the Authorization scheme the TOM API expects.
const DefaultAuthScheme = "JWT"

const (
	maxErrorBody = 64 << 10
	maxTextBody  = 4 << 20
)

var errNoTokenSource = errors.New("no token source bound to client")

// TokenSource supplies access tokens for authenticated calls.
// Refresh is called at most once per request, after a 401.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// Config captures how to reach the TOM API.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	AuthScheme string
	UserAgent  string
	// CookieJar keeps upstream cookies between calls. Only enable it for
	// single-user processes such as the admin CLI.
	CookieJar bool
	Client    *http.Client
	Metrics   statsd.Sink
	Logger    *slog.Logger
}

// Client calls the TOM API. A Client bound to a TokenSource (see WithTokenSource)
// authenticates its calls; the unbound client only reaches the token endpoints.
type Client struct {
	baseURL   *url.URL
	scheme    string
	userAgent string
	client    *http.Client
	metrics   statsd.Sink
	logger    *slog.Logger
	tokens    TokenSource
}

// New builds a TOM API client. Callers should pass a validated config.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("tom api base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse tom api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("tom api base url must be absolute: %q", raw)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	if cfg.CookieJar && hc.Jar == nil {
		jar, jarErr := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if jarErr != nil {
			return nil, fmt.Errorf("create cookie jar: %w", jarErr)
		}
		clone := *hc
		clone.Jar = jar
		hc = &clone
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:   base,
		scheme:    fallbackString(strings.TrimSpace(cfg.AuthScheme), DefaultAuthScheme),
		userAgent: fallbackString(strings.TrimSpace(cfg.UserAgent), "tom-portal"),
		client:    hc,
		metrics:   cfg.Metrics,
		logger:    logger.With("component", "tomapi"),
	}, nil
}

// WithTokenSource returns a copy of the client that authenticates with ts.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	clone := *c
	clone.tokens = ts
	return &clone
}

type request struct {
	method   string
	path     string
	query    url.Values
	body     any
	resource string
	// auth sends the bound token source's token and enables refresh-and-retry.
	auth bool
	// bearer sends a fixed token with no retry.
	bearer string
	// text reads a text/plain response into a *string instead of decoding JSON.
	text bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	start := time.Now()
	status, retried, err := c.send(ctx, r, out)
	metrics.EmitUpstreamCall(c.metrics, metrics.CallMetric{
		Method:   r.method,
		Resource: r.resource,
		Status:   status,
		Retried:  retried,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "tom api call failed",
			"method", r.method, "path", r.path, "status", status, "retried", retried, "error", err)
	}
	return err
}

func (c *Client) send(ctx context.Context, r request, out any) (int, bool, error) {
	payload, err := encodeBody(r.body)
	if err != nil {
		return 0, false, err
	}

	token := r.bearer
	if r.auth {
		if c.tokens == nil {
			return 0, false, domainauth.NewAuthError(domainauth.KindUnauthorized, 0, errNoTokenSource)
		}
		if token, err = c.tokens.Token(ctx); err != nil {
			return 0, false, err
		}
	}

	resp, err := c.roundTrip(ctx, r, payload, token)
	if err != nil {
		return 0, false, err
	}
	if resp.StatusCode != http.StatusUnauthorized || !r.auth {
		return resp.StatusCode, false, c.decode(resp, r, out)
	}

	// One refresh, one retry.
	closeBody(resp)
	if token, err = c.tokens.Refresh(ctx); err != nil {
		return http.StatusUnauthorized, true, err
	}
	resp, err = c.roundTrip(ctx, r, payload, token)
	if err != nil {
		return 0, true, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		apiErr := readAPIError(resp)
		return resp.StatusCode, true, domainauth.NewAuthError(domainauth.KindUnauthorized, resp.StatusCode, apiErr)
	}
	return resp.StatusCode, true, c.decode(resp, r, out)
}

func (c *Client) roundTrip(ctx context.Context, r request, payload []byte, token string) (*http.Response, error) {
	target := c.resolve(r.path, r.query)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "create %s %s request", r.method, r.path)
	}
	if r.text {
		req.Header.Set("Accept", "text/plain")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", c.scheme+" "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.FromTransport(err), "%s %s", r.method, r.path)
	}
	return resp, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := c.baseURL.JoinPath(path)
	// API routes require the trailing slash.
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) decode(resp *http.Response, r request, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := readAPIError(resp)
		appErr := apperrors.Wrapf(apiErr, apperrors.FromStatus(resp.StatusCode), "%s %s", r.method, r.path)
		appErr.Field = apiErr.singleField()
		return appErr
	}
	defer closeBody(resp)

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if dst, ok := out.(*string); ok && r.text {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxTextBody))
		if err != nil {
			return apperrors.Wrapf(err, apperrors.FromTransport(err), "read %s %s response", r.method, r.path)
		}
		*dst = string(b)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "decode %s %s response", r.method, r.path)
	}
	return nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request body")
	}
	return payload, nil
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}

func fallbackString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
