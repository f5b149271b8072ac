package sandbox

import (
	"github.com/adyen/checkout-sessions-go/internal/common/httpx"
)

// Checkout error codes returned by the sandbox.
const (
	codeValidation       = "14_0000"
	codeSessionNotFound  = "14_0404"
	codeStaleSessionData = "14_0417"
	codeSessionExpired   = "14_0418"
	codeOrderNotFound    = "14_0420"
	codeUnsupported      = "14_0430"
	codeNotEnoughBalance = "14_0440"
)

func errValidation(msg string) *httpx.Error {
	return httpx.ErrUnprocessable(codeValidation, msg)
}

func errSessionNotFound() *httpx.Error {
	return httpx.ErrUnprocessable(codeSessionNotFound, "session not found")
}

func errStaleSessionData() *httpx.Error {
	return httpx.ErrUnprocessable(codeStaleSessionData, "session data is not the latest for this session")
}

func errSessionExpired() *httpx.Error {
	return httpx.ErrUnprocessable(codeSessionExpired, "session expired")
}

func errOrderNotFound() *httpx.Error {
	return httpx.ErrUnprocessable(codeOrderNotFound, "order not found")
}

func errUnsupported(msg string) *httpx.Error {
	return httpx.ErrUnprocessable(codeUnsupported, msg)
}

func errNotEnoughBalance() *httpx.Error {
	return httpx.ErrUnprocessable(codeNotEnoughBalance, "not enough balance on the gift card")
}
