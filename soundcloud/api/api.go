package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/xeptore/soundbridge/config"
	"github.com/xeptore/soundbridge/httputil"
	"github.com/xeptore/soundbridge/soundcloud/resource"
)

var (
	ErrTooManyRequests = errors.New("too many requests")
	ErrUnauthorized    = errors.New("unauthorized")
)

type Client struct {
	conf    config.API
	limiter *rate.Limiter
}

func New(conf config.API) *Client {
	return &Client{
		conf:    conf,
		limiter: rate.NewLimiter(rate.Limit(conf.RateLimit), 1),
	}
}

// Get issues one request against a resolved endpoint and returns the raw
// response body. When the endpoint requires authentication and a credential
// is configured, it is attached as an OAuth header; otherwise the request
// proceeds anonymously with the configured client id parameter.
func (c *Client) Get(
	ctx context.Context,
	logger zerolog.Logger,
	ep resource.Endpoint,
	timeout time.Duration,
) ([]byte, error) {
	reqURL := c.conf.BaseURL + "/" + ep.Path + encodeParams(ep.Params, c.authParams(ep.RequiresAuth))

	return c.get(ctx, logger, reqURL, ep.RequiresAuth, timeout)
}

// GetURL issues one request against an absolute URL, used to follow
// continuation cursors the remote hands back.
func (c *Client) GetURL(
	ctx context.Context,
	logger zerolog.Logger,
	rawURL string,
	requiresAuth bool,
	timeout time.Duration,
) ([]byte, error) {
	return c.get(ctx, logger, rawURL, requiresAuth, timeout)
}

func (c *Client) get(
	ctx context.Context,
	logger zerolog.Logger,
	reqURL string,
	requiresAuth bool,
	timeout time.Duration,
) (b []byte, err error) {
	logger = logger.With().Str("url", reqURL).Logger()

	if err := c.limiter.Wait(ctx); nil != err {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to create catalog request")
		return nil, fmt.Errorf("failed to create catalog request: %v", err)
	}

	req.Header.Add("Accept", "application/json")
	if requiresAuth && c.conf.Authenticated() {
		req.Header.Add("Authorization", "OAuth "+c.conf.Key)
	}

	client := http.Client{Timeout: timeout} //nolint:exhaustruct
	resp, err := client.Do(req)
	if nil != err {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, context.DeadlineExceeded
		}

		if errors.Is(err, context.Canceled) {
			return nil, context.Canceled
		}

		logger.Error().Err(err).Msg("Failed to send catalog request")

		return nil, fmt.Errorf("failed to send catalog request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			logger.Error().Err(closeErr).Msg("Failed to close catalog response body")
			err = errors.Join(err, fmt.Errorf("failed to close catalog response body: %v", closeErr))
		}
	}()

	switch code := resp.StatusCode; code {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrTooManyRequests
	default:
		respBytes, err := httputil.ReadResponseBody(resp)
		if nil != err {
			logger.Error().Err(err).Int("status_code", code).Msg("Failed to read unexpected response body")
			return nil, fmt.Errorf("failed to read unexpected response body: %v", err)
		}

		if msg, ok := httputil.APIErrorMessage(respBytes); ok {
			return nil, &httputil.APIError{Message: msg}
		}

		logger.Error().Int("status_code", code).Bytes("response_body", respBytes).Msg("Unexpected response status code")

		return nil, fmt.Errorf("unexpected response code %d with body: %s", code, string(respBytes))
	}

	respBytes, err := httputil.ReadResponseBody(resp)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to read catalog response body")
		return nil, fmt.Errorf("failed to read catalog response body: %v", err)
	}

	return respBytes, nil
}

// authParams returns the parameters appended to every request URL: anonymous
// requests identify themselves with the configured client id instead of a
// credential header.
func (c *Client) authParams(requiresAuth bool) []resource.Param {
	if requiresAuth && c.conf.Authenticated() {
		return nil
	}

	if c.conf.ClientID != "" {
		return []resource.Param{{Key: "client_id", Value: c.conf.ClientID}}
	}

	return nil
}

// encodeParams builds a query string preserving parameter order, which
// url.Values would destroy.
func encodeParams(params, extra []resource.Param) string {
	all := make([]resource.Param, 0, len(params)+len(extra))
	all = append(all, params...)
	all = append(all, extra...)

	if len(all) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, p := range all {
		if i == 0 {
			sb.WriteByte('?')
		} else {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}

	return sb.String()
}
