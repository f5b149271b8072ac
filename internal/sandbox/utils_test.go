package sandbox

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/adyen/checkout-sessions-go/internal/common/middleware"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	s, err := CreateNewServer(opts)
	require.NoError(t, err, "create new server")
	s.MountHandlers()
	return s
}

func executeTestRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func checkHeader(t *testing.T, h http.Header) {
	t.Helper()
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	assert.NotEmpty(t, h.Get(middleware.RequestIDHeader), "No Request Id")
}

// createTestSession creates a 1000 EUR session and returns its id and token.
func createTestSession(t *testing.T, s *Server) (string, string) {
	t.Helper()
	rr := executeTestRequest(t, s, http.MethodPost, "/v1/sessions", `{
		"amount": {"currency": "EUR", "value": 1000},
		"returnUrl": "https://shop.example/return",
		"reference": "order-1"
	}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	checkHeader(t, rr.Result().Header)
	id := gjson.Get(rr.Body.String(), "id").String()
	token := gjson.Get(rr.Body.String(), "sessionData").String()
	require.NotEmpty(t, id)
	require.NotEmpty(t, token)
	return id, token
}

// call posts body with the sessionData set and returns the response and the rotated token.
func call(t *testing.T, s *Server, id, op, token string, body map[string]any) (*httptest.ResponseRecorder, string) {
	t.Helper()
	if body == nil {
		body = map[string]any{}
	}
	body["sessionData"] = token
	rr := executeTestRequest(t, s, http.MethodPost, "/v1/sessions/"+id+"/"+op, body)
	return rr, gjson.Get(rr.Body.String(), "sessionData").String()
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func httptestRecorder(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}
