package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
	"github.com/jrsteele09/go-todo-client/token"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	pathToken                = "/auth/token/"
	pathRegister             = "/auth/register"
	pathPasswordReset        = "/auth/password-reset"
	pathPasswordResetConfirm = "/auth/password-reset/confirm/%s/%s"
	pathTasks                = "/tasks/"
	pathTask                 = "/tasks/%d"
)

// Client talks to the remote to-do REST API. Auth endpoints are called
// anonymously; task endpoints carry the stored access token as a bearer.
type Client struct {
	baseURL string
	anon    *http.Client
	authed  *http.Client
}

type Option func(*options)

type options struct {
	base    http.RoundTripper
	timeout time.Duration
}

// WithTransport replaces the base round tripper, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.base = rt
	}
}

// WithTimeout bounds every request. Zero leaves timeouts to the transport.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// New creates a client for the API rooted at baseURL, reading bearer
// tokens from store on every task request.
func New(baseURL string, store token.Store, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[apiclient.New] base URL is required")
	}
	if store == nil {
		return nil, errors.New("[apiclient.New] token store is required")
	}

	o := options{base: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	base := &requestIDTransport{base: o.base}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anon:    &http.Client{Transport: base, Timeout: o.timeout},
		authed: &http.Client{
			Transport: &oauth2.Transport{Source: NewStoreTokenSource(store), Base: base},
			Timeout:   o.timeout,
		},
	}, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, client *http.Client, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", todoerrors.ErrRequestFailed, method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", todoerrors.ErrRequestFailed, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", todoerrors.ErrRequestFailed, method, path, err)
	}
	return nil
}
