package sessions

import (
	"context"
	"encoding/json"
)

// Repository performs the session-scoped backend calls. Every call receives the session
// with the latest token; responses carry the rotated token.
type Repository interface {
	SubmitPayment(ctx context.Context, session SessionModel, paymentData json.RawMessage) (*PaymentsResponse, error)
	SubmitDetails(ctx context.Context, session SessionModel, details json.RawMessage) (*DetailsResponse, error)
	CheckBalance(ctx context.Context, session SessionModel, paymentMethod json.RawMessage) (*BalanceResponse, error)
	CreateOrder(ctx context.Context, session SessionModel) (*CreateOrderResponse, error)
	CancelOrder(ctx context.Context, session SessionModel, order OrderRequest) (*CancelOrderResponse, error)
	SetupSession(ctx context.Context, session SessionModel, order *OrderRequest) (*SetupResponse, error)
}

// MerchantCall asks the merchant integration whether it handled a call itself.
// It must return promptly; a nil MerchantCall declines.
type MerchantCall func() bool
