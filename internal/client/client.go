// Package client wraps the Inkpress content REST API. Every call maps 1:1 to an
// endpoint; the bearer credential is taken from a TokenSource on each request.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inkpress/desk/internal/common"
)

const DefaultTimeout = 15 * time.Second

// TokenSource supplies the ambient bearer credential. An empty token sends the
// request anonymously.
type TokenSource interface {
	Token() string
}

type TokenFunc func() string

func (f TokenFunc) Token() string {
	return f()
}

type Options struct {
	Endpoint string
	Base     string
	Timeout  time.Duration
}

type Client struct {
	http   *resty.Client
	tokens TokenSource
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{}

	c.http = resty.New().
		SetBaseURL(BaseURL(opts.Endpoint, opts.Base)).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", fmt.Sprintf("inkpress-desk/%s", common.GetBuildIdentifier())).
		SetHeader("X-Client-ID", common.GetClientIdentifier().String())

	c.http.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader("X-Request-ID", uuid.NewString())
		if c.tokens == nil {
			return nil
		}
		if token := c.tokens.Token(); len(token) > 0 {
			r.SetAuthToken(token)
		}
		return nil
	})

	return c
}

// BaseURL joins the API endpoint and base path, e.g. http://localhost:8080 and
// /api give http://localhost:8080/api.
func BaseURL(endpoint string, base string) string {
	endpoint = strings.TrimSuffix(endpoint, "/")
	base = strings.Trim(base, "/")
	if len(base) == 0 {
		return endpoint
	}
	return fmt.Sprintf("%s/%s", endpoint, base)
}

// SetTokenSource installs the credential source. It is called once while the
// application is wired, before any request is made.
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

func (c *Client) BaseURL() string {
	return c.http.BaseURL
}

func (c *Client) do(ctx context.Context, method string, path string, body any, params map[string]string, result any) error {
	apiErr := &APIError{}

	req := c.http.R().
		SetContext(ctx).
		SetError(apiErr)

	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).WithError(err).Debugln("Request to content API failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		if len(apiErr.Message) == 0 {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}

		logrus.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode(),
		}).Debugln("Content API returned an error")

		return apiErr
	}

	return nil
}
