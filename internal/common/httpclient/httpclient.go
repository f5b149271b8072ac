package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
)

const (
	ClientKeyParam       = "clientKey"
	IdempotencyKeyHeader = "Idempotency-Key"
)

// Configurator provides the server location and credentials for the client.
type Configurator interface {
	GetServerURL() string
	GetClientKey() string
	GetRequestTimeout() time.Duration
}

// ServerError is the error body returned by the Checkout API.
type ServerError struct {
	Status    int    `json:"status"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
	ErrorType string `json:"errorType"`
}

// HTTPError represents an error response from the server with HTTP status code and message.
type HTTPError struct {
	StatusCode int    // HTTP status code of the error
	ErrorCode  string // backend error code, if any
	Message    string // Error message or response body
}

// Error implements the error interface for HTTPError.
func (e *HTTPError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.ErrorCode)
	}
	return e.Message
}

// Retryable reports whether repeating the request could succeed.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// RequestOptions contains options for making HTTP requests.
type RequestOptions struct {
	Method         string            // HTTP method
	Path           string            // API endpoint path, relative to the server URL
	QueryParams    map[string]string // Optional query parameters
	Body           []byte            // Optional request body
	IdempotencyKey string            // Optional Idempotency-Key header value
	Attempts       uint              // total attempts; values above 1 enable retries
}

// HTTPClient makes requests to the Checkout API over the network.
type HTTPClient struct {
	config     Configurator
	httpClient *http.Client
	retryDelay time.Duration
}

// NewClient creates a new HTTP client using the provided configuration.
func NewClient(config Configurator) *HTTPClient {
	return &HTTPClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.GetRequestTimeout()},
		retryDelay: 200 * time.Millisecond,
	}
}

// DoRequest sends the request, retrying transport failures and 5xx responses
// when opts.Attempts is greater than one.
func (c *HTTPClient) DoRequest(ctx context.Context, opts RequestOptions) ([]byte, error) {
	var body []byte
	attempts := opts.Attempts
	if attempts == 0 {
		attempts = 1
	}
	err := retry.Do(func() error {
		req, err := newRequest(ctx, c.config, opts)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Unrecoverable(ctx.Err())
			}
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		body, err = checkResponse(resp.StatusCode, raw)
		return err
	},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Err(err).Uint("attempt", n+1).Str("path", opts.Path).Msg("retrying request")
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// PostJSON posts a JSON body to path with the given query parameters.
func (c *HTTPClient) PostJSON(ctx context.Context, path string, body []byte, queryParams map[string]string) ([]byte, error) {
	return c.DoRequest(ctx, RequestOptions{
		Method:      http.MethodPost,
		Path:        path,
		QueryParams: queryParams,
		Body:        body,
	})
}

func newRequest(ctx context.Context, config Configurator, opts RequestOptions) (*http.Request, error) {
	u, err := url.Parse(config.GetServerURL())
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.Path = path.Join(u.Path, opts.Path)

	q := u.Query()
	for k, v := range opts.QueryParams {
		q.Set(k, v)
	}
	if key := config.GetClientKey(); key != "" {
		q.Set(ClientKeyParam, key)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, opts.Method, u.String(), bytes.NewReader(opts.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if opts.IdempotencyKey != "" {
		req.Header.Set(IdempotencyKeyHeader, opts.IdempotencyKey)
	}
	return req, nil
}

func checkResponse(statusCode int, body []byte) ([]byte, error) {
	if statusCode < http.StatusBadRequest {
		return body, nil
	}
	var serverErr ServerError
	if err := json.Unmarshal(body, &serverErr); err == nil && serverErr.Message != "" {
		return nil, &HTTPError{
			StatusCode: statusCode,
			ErrorCode:  serverErr.ErrorCode,
			Message:    serverErr.Message,
		}
	}
	if statusCode == http.StatusNotFound {
		return nil, &HTTPError{
			StatusCode: statusCode,
			Message:    "server doesn't implement this endpoint",
		}
	}
	return nil, &HTTPError{
		StatusCode: statusCode,
		Message:    string(body),
	}
}

func isRetryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
