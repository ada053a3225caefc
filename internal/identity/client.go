package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gateway-server/internal/domain/account"
	"gateway-server/pkg/metrics"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Config struct {
	BaseURL             string
	Timeout             time.Duration
	MaxIdleConnsPerHost int
}

// Client talks to the identity service. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf(errInvalidBaseURLFmt, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	idle := cfg.MaxIdleConnsPerHost
	if idle <= 0 {
		idle = defaultMaxIdleConnsPerHost
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = idle
	transport.IdleConnTimeout = idleConnTimeout

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(transport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type existsResponse struct {
	Exists *bool `json:"exists"`
}

type profileFields struct {
	AccountID  *int64  `json:"accountId"`
	Permission *string `json:"permission"`
}

// profileResponse accepts the identity service's nested shape
// ({"common": {...}}) as well as a flat one.
type profileResponse struct {
	profileFields
	Common *profileFields `json:"common"`
}

// ProfileExists asks whether a profile is bound to the token. A 404 is
// reported as false.
func (c *Client) ProfileExists(ctx context.Context, token string) (bool, error) {
	var body existsResponse
	err := c.get(ctx, OperationExists, fmt.Sprintf(pathExistsFmt, url.PathEscape(token)), &body)
	if errors.Is(err, errNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if body.Exists == nil {
		return false, fmt.Errorf(errMalformedFieldFmt, ErrMalformedResponse, OperationExists, "exists")
	}
	return *body.Exists, nil
}

// FetchProfile loads the profile bound to the token and reduces it to an Account.
func (c *Client) FetchProfile(ctx context.Context, token string) (account.Account, error) {
	var body profileResponse
	err := c.get(ctx, OperationProfile, fmt.Sprintf(pathProfileFmt, url.PathEscape(token)), &body)
	if errors.Is(err, errNotFound) {
		return account.Account{}, ErrProfileNotFound
	}
	if err != nil {
		return account.Account{}, err
	}
	return body.toAccount()
}

func (r profileResponse) toAccount() (account.Account, error) {
	fields := r.profileFields
	if r.Common != nil {
		fields = *r.Common
	}

	if fields.AccountID == nil {
		return account.Account{}, fmt.Errorf(errMalformedFieldFmt, ErrMalformedResponse, OperationProfile, "accountId")
	}
	if fields.Permission == nil {
		return account.Account{}, fmt.Errorf(errMalformedFieldFmt, ErrMalformedResponse, OperationProfile, "permission")
	}

	perm, err := account.ParsePermission(*fields.Permission)
	if err != nil {
		return account.Account{}, fmt.Errorf(errMalformedPermissionFmt, ErrMalformedResponse, OperationProfile, err)
	}

	return account.Account{ID: *fields.AccountID, Permission: perm}, nil
}

func (c *Client) get(ctx context.Context, operation, path string, out any) error {
	start := time.Now()
	result := resultOK
	defer func() {
		c.metrics.ObserveIdentityCall(operation, result, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		result = resultError
		return fmt.Errorf(errBuildRequestFmt, operation, err)
	}
	req.Header.Set(headerAccept, mimeApplicationJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result = resultUnavailable
		return fmt.Errorf(errUnavailableFmt, ErrUpstreamUnavailable, operation, transportCause(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		result = resultNotFound
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return errNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		result = resultError
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return &StatusError{Operation: operation, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result = resultUnavailable
			return fmt.Errorf(errUnavailableFmt, ErrUpstreamUnavailable, operation, ctxErr)
		}
		result = resultMalformed
		return fmt.Errorf(errMalformedFmt, ErrMalformedResponse, operation, err)
	}
	return nil
}

// transportCause drops the *url.Error wrapper, whose message embeds the
// request URL and therefore the token.
func transportCause(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
