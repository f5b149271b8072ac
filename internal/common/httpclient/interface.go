// Package httpclient provides the HTTP client used to reach the Checkout sessions API.
// It authenticates with a client key, attaches idempotency keys, maps error responses
// to HTTPError and retries requests that are marked as safe to repeat.
package httpclient

import (
	"context"
)

// HTTPClientInterface defines the interface for HTTP client implementations.
type HTTPClientInterface interface {
	// DoRequest makes an HTTP request with the given options and returns the response body.
	DoRequest(ctx context.Context, opts RequestOptions) ([]byte, error)

	// PostJSON posts a JSON body to path with the given query parameters.
	PostJSON(ctx context.Context, path string, body []byte, queryParams map[string]string) ([]byte, error)
}

// Verify that the HTTPClient and TestHTTPClient implement the HTTPClientInterface.
var _ HTTPClientInterface = &HTTPClient{}
var _ HTTPClientInterface = &TestHTTPClient{}
