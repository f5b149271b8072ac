package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
)

// TestHTTPClient serves requests directly from an http.Handler, without a network round trip.
type TestHTTPClient struct {
	config  Configurator
	handler http.Handler
}

// NewTestClient creates a client that dispatches every request to handler.
func NewTestClient(config Configurator, handler http.Handler) *TestHTTPClient {
	return &TestHTTPClient{
		config:  config,
		handler: handler,
	}
}

// DoRequest records the handler response and applies the same error mapping as HTTPClient.
// Attempts is ignored.
func (c *TestHTTPClient) DoRequest(ctx context.Context, opts RequestOptions) ([]byte, error) {
	req, err := newRequest(ctx, c.config, opts)
	if err != nil {
		return nil, err
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return checkResponse(rr.Code, rr.Body.Bytes())
}

// PostJSON posts a JSON body to path with the given query parameters.
func (c *TestHTTPClient) PostJSON(ctx context.Context, path string, body []byte, queryParams map[string]string) ([]byte, error) {
	return c.DoRequest(ctx, RequestOptions{
		Method:      http.MethodPost,
		Path:        path,
		QueryParams: queryParams,
		Body:        body,
	})
}
