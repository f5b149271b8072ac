package sandbox

import (
	"encoding/json"

	"github.com/adyen/checkout-sessions-go/internal/sessions"
)

type sessionRequest interface {
	token() string
}

type orderRef struct {
	PspReference string `json:"pspReference" validate:"required"`
	OrderData    string `json:"orderData" validate:"required"`
}

type amountReq struct {
	Currency string `json:"currency" validate:"required,currency"`
	Value    int64  `json:"value" validate:"gt=0"`
}

type createSessionRequest struct {
	Amount          amountReq `json:"amount" validate:"required"`
	ReturnURL       string    `json:"returnUrl" validate:"required,url"`
	Reference       string    `json:"reference" validate:"omitempty,noSpaces"`
	MerchantAccount string    `json:"merchantAccount"`
}

type createSessionResponse struct {
	ID          string          `json:"id"`
	SessionData string          `json:"sessionData"`
	Amount      sessions.Amount `json:"amount"`
	ExpiresAt   string          `json:"expiresAt"`
	ReturnURL   string          `json:"returnUrl"`
	Reference   string          `json:"reference,omitempty"`
}

type setupRequest struct {
	SessionData string    `json:"sessionData" validate:"required"`
	Order       *orderRef `json:"order,omitempty"`
}

type paymentsRequest struct {
	SessionData   string          `json:"sessionData" validate:"required"`
	PaymentMethod json.RawMessage `json:"paymentMethod" validate:"required"`
	Order         *orderRef       `json:"order,omitempty"`
}

type paymentsResponse struct {
	sessions.PaymentsResponse
	PspReference string `json:"pspReference,omitempty"`
}

type detailsRequest struct {
	SessionData string          `json:"sessionData" validate:"required"`
	Details     json.RawMessage `json:"details" validate:"required"`
	PaymentData string          `json:"paymentData,omitempty"`
}

type balanceRequest struct {
	SessionData   string          `json:"sessionData" validate:"required"`
	PaymentMethod json.RawMessage `json:"paymentMethod" validate:"required"`
}

type createOrderRequest struct {
	SessionData string `json:"sessionData" validate:"required"`
}

type createOrderResponse struct {
	sessions.CreateOrderResponse
	Amount          sessions.Amount `json:"amount"`
	RemainingAmount sessions.Amount `json:"remainingAmount"`
	ExpiresAt       string          `json:"expiresAt"`
}

type cancelOrderRequest struct {
	SessionData string   `json:"sessionData" validate:"required"`
	Order       orderRef `json:"order" validate:"required"`
}

type versionResponse struct {
	ServerVersion string `json:"serverVersion"`
	ApiVersion    string `json:"apiVersion"`
}

func (r *setupRequest) token() string { return r.SessionData }
func (r *paymentsRequest) token() string { return r.SessionData }
func (r *detailsRequest) token() string { return r.SessionData }
func (r *balanceRequest) token() string { return r.SessionData }
func (r *createOrderRequest) token() string { return r.SessionData }
func (r *cancelOrderRequest) token() string { return r.SessionData }
