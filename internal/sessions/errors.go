package sessions

import (
	"net/http"

	"github.com/adyen/checkout-sessions-go/internal/common/apperrors"
)

var (
	ErrSessionError apperrors.Error = apperrors.New("session error").SetStatusCode(http.StatusInternalServerError)

	ErrInvalidSession        = ErrSessionError.New("invalid session").SetStatusCode(http.StatusBadRequest)
	ErrInvalidAction         = ErrSessionError.New("invalid action")
	ErrBackendCall           = ErrSessionError.New("session backend call failed")
	ErrNotEnoughBalance      = ErrSessionError.New("Not enough balance").SetStatusCode(http.StatusUnprocessableEntity)
	ErrPaymentMethodsMissing = ErrSessionError.New("Payment methods should not be null")
	ErrMethodNotImplemented  = ErrSessionError.New("method not implemented")
)
