// Package httpx provides request parsing and response writing helpers for the
// sandbox checkout server. Handlers return a *Response or an error and WrapHttpRsp
// renders either in the checkout JSON shape.
package httpx

import (
	"io"
	"net/http"

	jsonitor "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/adyen/checkout-sessions-go/internal/common/apperrors"
)

var json = jsonitor.ConfigCompatibleWithStandardLibrary

// MaxRequestBodySize bounds the body read by GetRequestData.
const MaxRequestBodySize int64 = 1 << 20

// GetRequestData parses the JSON request body into data.
// Only POST and PUT are accepted.
func GetRequestData(r *http.Request, data any) error {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return ErrReqMethodNotSupported()
	}
	if r.Body == nil || r.Body == http.NoBody {
		log.Ctx(r.Context()).Error().Msg("empty request body")
		return ErrUnableToParseReqData()
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		return ErrUnableToReadRequest()
	}
	if int64(len(body)) > MaxRequestBodySize {
		return ErrRequestTooLarge(MaxRequestBodySize)
	}
	if err := json.Unmarshal(body, data); err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("unable to decode request body")
		return ErrUnableToParseReqData()
	}
	return nil
}

// Response is what a RequestHandler returns on success.
type Response struct {
	StatusCode int
	Response   any
}

// RequestHandler handles a request and returns either a response or an error.
type RequestHandler func(r *http.Request) (*Response, error)

// WrapHttpRsp adapts a RequestHandler to http.HandlerFunc.
func WrapHttpRsp(handler RequestHandler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rsp, err := handler(r)
		if err != nil {
			FromError(err).Send(w)
			return
		}
		if rsp == nil {
			ErrApplicationError().Send(w)
			return
		}
		statusCode := rsp.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		SendJsonRsp(r.Context(), w, statusCode, rsp.Response)
	})
}

// FromError converts any error into an *Error, keeping the status code of
// application errors and defaulting to 500.
func FromError(err error) *Error {
	switch e := err.(type) {
	case *Error:
		return e
	case apperrors.Error:
		statusCode := e.StatusCode()
		if statusCode == 0 {
			statusCode = http.StatusInternalServerError
		}
		return &Error{
			Status:    statusCode,
			ErrorCode: codeForStatus(statusCode),
			Message:   e.ErrorAll(),
			ErrorType: typeForStatus(statusCode),
		}
	default:
		return ErrApplicationError(err.Error())
	}
}
