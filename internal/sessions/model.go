// Package sessions implements the checkout sessions protocol: the session model and its
// rotating token, the per-operation result taxonomy, and the Interactor that mediates
// every session-scoped backend call, including merchant takeover.
package sessions

import (
	"encoding/json"
	"strings"
)

// SessionModel identifies the session a flow runs in. SessionData is the opaque token the
// backend rotates on every call.
type SessionModel struct {
	ID          string `json:"id"`
	SessionData string `json:"sessionData"`
}

// NewSessionModel validates and returns a session model.
func NewSessionModel(id, sessionData string) (SessionModel, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return SessionModel{}, ErrInvalidSession.Msg("session id is required")
	}
	if sessionData == "" {
		return SessionModel{}, ErrInvalidSession.Msg("session data is required")
	}
	return SessionModel{ID: id, SessionData: sessionData}, nil
}

// SessionModelFromSetup builds the session model from a setup response.
func SessionModelFromSetup(setup *SetupResponse) (SessionModel, error) {
	if setup == nil {
		return SessionModel{}, ErrInvalidSession.Msg("missing setup response")
	}
	return NewSessionModel(setup.ID, setup.SessionData)
}

// Amount is a value in minor units of Currency.
type Amount struct {
	Currency string `json:"currency"`
	Value    int64  `json:"value"`
}

// OrderRequest references an existing partial-payment order.
type OrderRequest struct {
	PspReference string `json:"pspReference"`
	OrderData    string `json:"orderData"`
}

// OrderResponse describes a partial-payment order. Amount and RemainingAmount are
// only present when the backend reports them.
type OrderResponse struct {
	PspReference    string  `json:"pspReference"`
	OrderData       string  `json:"orderData"`
	Amount          *Amount `json:"amount,omitempty"`
	RemainingAmount *Amount `json:"remainingAmount,omitempty"`
}

// Request returns the request form of the order, nil for a nil order.
func (o *OrderResponse) Request() *OrderRequest {
	if o == nil {
		return nil
	}
	return &OrderRequest{PspReference: o.PspReference, OrderData: o.OrderData}
}

// HasRemainingAmount reports whether the order still has an unpaid balance.
// A missing remaining amount counts as fully paid.
func (o *OrderResponse) HasRemainingAmount() bool {
	if o == nil || o.RemainingAmount == nil {
		return false
	}
	return o.RemainingAmount.Value > 0
}

// BalanceResult is the usable balance of a partial-payment instrument.
type BalanceResult struct {
	Balance          Amount  `json:"balance"`
	TransactionLimit *Amount `json:"transactionLimit,omitempty"`
}

// PaymentMethod is one entry of the payment methods list.
type PaymentMethod struct {
	Type    string          `json:"type"`
	Name    string          `json:"name"`
	Brand   string          `json:"brand,omitempty"`
	Brands  []string        `json:"brands,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// StoredPaymentMethod is a payment method saved for the shopper.
type StoredPaymentMethod struct {
	ID                           string   `json:"id"`
	Type                         string   `json:"type"`
	Name                         string   `json:"name"`
	Brand                        string   `json:"brand,omitempty"`
	LastFour                     string   `json:"lastFour,omitempty"`
	ExpiryMonth                  string   `json:"expiryMonth,omitempty"`
	ExpiryYear                   string   `json:"expiryYear,omitempty"`
	SupportedShopperInteractions []string `json:"supportedShopperInteractions,omitempty"`
}

// PaymentMethodsResponse lists the payment methods available to the session.
type PaymentMethodsResponse struct {
	PaymentMethods       []PaymentMethod       `json:"paymentMethods"`
	StoredPaymentMethods []StoredPaymentMethod `json:"storedPaymentMethods,omitempty"`
}

// SessionConfiguration carries the merchant's session-level UI options.
type SessionConfiguration struct {
	EnableStoreDetails *bool          `json:"enableStoreDetails,omitempty"`
	InstallmentOptions map[string]any `json:"installmentOptions,omitempty"`
}

// SetupResponse is returned by session setup.
type SetupResponse struct {
	ID             string                  `json:"id"`
	SessionData    string                  `json:"sessionData"`
	Amount         *Amount                 `json:"amount,omitempty"`
	ExpiresAt      string                  `json:"expiresAt"`
	PaymentMethods *PaymentMethodsResponse `json:"paymentMethods,omitempty"`
	ReturnURL      string                  `json:"returnUrl,omitempty"`
	Configuration  *SessionConfiguration   `json:"configuration,omitempty"`
}

// PaymentsResponse is returned when submitting a payment.
type PaymentsResponse struct {
	SessionData   string         `json:"sessionData"`
	SessionResult string         `json:"sessionResult,omitempty"`
	ResultCode    string         `json:"resultCode,omitempty"`
	Action        *Action        `json:"action,omitempty"`
	Order         *OrderResponse `json:"order,omitempty"`
}

// DetailsResponse is returned when submitting action details. It has the same shape as
// PaymentsResponse.
type DetailsResponse struct {
	SessionData   string         `json:"sessionData"`
	SessionResult string         `json:"sessionResult,omitempty"`
	ResultCode    string         `json:"resultCode,omitempty"`
	Action        *Action        `json:"action,omitempty"`
	Order         *OrderResponse `json:"order,omitempty"`
}

// BalanceResponse is returned by a balance check.
type BalanceResponse struct {
	SessionData      string  `json:"sessionData"`
	Balance          Amount  `json:"balance"`
	TransactionLimit *Amount `json:"transactionLimit,omitempty"`
}

// CreateOrderResponse is returned when creating an order.
type CreateOrderResponse struct {
	SessionData  string `json:"sessionData"`
	PspReference string `json:"pspReference"`
	OrderData    string `json:"orderData"`
}

// CancelOrderResponse is returned when cancelling an order.
type CancelOrderResponse struct {
	SessionData string `json:"sessionData"`
	Status      string `json:"status,omitempty"`
}

// SessionPaymentResult is the terminal outcome of a payment flow.
type SessionPaymentResult struct {
	SessionResult string         `json:"sessionResult,omitempty"`
	SessionData   string         `json:"sessionData,omitempty"`
	ResultCode    string         `json:"resultCode,omitempty"`
	Order         *OrderResponse `json:"order,omitempty"`
}
