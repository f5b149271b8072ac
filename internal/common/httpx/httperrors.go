package httpx

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/adyen/checkout-sessions-go/internal/common/apperrors"
)

// Error is an error response in the checkout API shape.
type Error struct {
	Status    int    `json:"status"`
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
	ErrorType string `json:"errorType"`
}

// Send writes the error response. A nil writer is ignored.
func (e *Error) Send(w http.ResponseWriter) {
	if w == nil {
		return
	}
	if e.ErrorCode == "" {
		e.ErrorCode = codeForStatus(e.Status)
	}
	if e.ErrorType == "" {
		e.ErrorType = typeForStatus(e.Status)
	}
	rspJson, err := json.Marshal(e)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Unable to parse error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	w.Write(rspJson)
}

func (e *Error) Error() string {
	return e.Message
}

// SendError sends an application error as an HTTP error response.
func SendError(w http.ResponseWriter, err apperrors.Error) {
	if err == nil {
		return
	}
	FromError(err).Send(w)
}

func codeForStatus(status int) string {
	return strconv.Itoa(status)
}

func typeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "security"
	case status >= 500:
		return "internal"
	default:
		return "validation"
	}
}

func newError(status int, code, msg string) *Error {
	return &Error{Status: status, ErrorCode: code, Message: msg, ErrorType: typeForStatus(status)}
}

func firstOr(msg []string, def string) string {
	if len(msg) > 0 && msg[0] != "" {
		return msg[0]
	}
	return def
}

// ErrReqMethodNotSupported returns an error for unsupported HTTP methods.
func ErrReqMethodNotSupported() *Error {
	return newError(http.StatusMethodNotAllowed, "100", "request method not supported")
}

// ErrUnableToParseReqData returns an error when request data cannot be parsed.
func ErrUnableToParseReqData() *Error {
	return newError(http.StatusBadRequest, "702", "unable to parse request data")
}

// ErrUnableToReadRequest returns an error when request data cannot be read.
func ErrUnableToReadRequest() *Error {
	return newError(http.StatusBadRequest, "702", "unable to read request data")
}

// ErrInvalidRequest returns a 400 validation error.
func ErrInvalidRequest(msg ...string) *Error {
	return newError(http.StatusBadRequest, "702", firstOr(msg, "invalid request data or empty request values"))
}

// ErrUnprocessable returns a 422 error carrying a checkout error code.
func ErrUnprocessable(code, msg string) *Error {
	return newError(http.StatusUnprocessableEntity, code, msg)
}

// ErrApplicationError returns an error for application-level failures.
func ErrApplicationError(msg ...string) *Error {
	return newError(http.StatusInternalServerError, "905", firstOr(msg, "unable to process request"))
}

// ErrUnAuthorized returns an error for unauthorized requests.
func ErrUnAuthorized(msg ...string) *Error {
	return newError(http.StatusUnauthorized, "000", firstOr(msg, "unable to authenticate request"))
}

// ErrMissingKeyInRequest returns an error when the client key is missing.
func ErrMissingKeyInRequest() *Error {
	return newError(http.StatusUnauthorized, "000", "missing client key in request")
}

// ErrRequestTimeout returns an error for request timeout.
func ErrRequestTimeout() *Error {
	return newError(http.StatusRequestTimeout, "905", "request timed out")
}

// ErrRequestTooLarge returns an error when the request body exceeds limit.
func ErrRequestTooLarge(limit int64) *Error {
	return newError(http.StatusRequestEntityTooLarge, "702", fmt.Sprintf("request body too large (limit: %d bytes)", limit))
}
