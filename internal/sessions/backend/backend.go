// Package backend implements the sessions Repository against the Checkout sessions
// HTTP API. Request payloads stay opaque: the session token and order context are
// spliced into the caller's JSON before it is sent.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	jsonitor "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/adyen/checkout-sessions-go/internal/common/httpclient"
	"github.com/adyen/checkout-sessions-go/internal/common/uuid"
	"github.com/adyen/checkout-sessions-go/internal/sessions"
)

var jsonit = jsonitor.ConfigCompatibleWithStandardLibrary

// Endpoint names under v1/sessions/{id}.
const (
	EndpointSetup          = "setup"
	EndpointPayments       = "payments"
	EndpointPaymentDetails = "paymentDetails"
	EndpointBalance        = "paymentMethodBalance"
	EndpointOrders         = "orders"
	EndpointCancelOrder    = "orders/cancel"
)

// DefaultSetupAttempts is the number of tries for the idempotent setup call.
const DefaultSetupAttempts = 3

var (
	ErrInvalidPayload  = sessions.ErrSessionError.New("invalid request payload").SetStatusCode(http.StatusBadRequest)
	ErrInvalidResponse = sessions.ErrBackendCall.New("invalid response from session backend")
)

// Repository talks to the sessions API through an HTTP client.
type Repository struct {
	client        httpclient.HTTPClientInterface
	setupAttempts uint
}

var _ sessions.Repository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository)

// WithSetupAttempts sets how many times setup is tried. Values below 1 mean 1.
func WithSetupAttempts(n uint) Option {
	return func(r *Repository) {
		r.setupAttempts = max(n, 1)
	}
}

// New creates a Repository on top of client.
func New(client httpclient.HTTPClientInterface, opts ...Option) *Repository {
	r := &Repository{client: client, setupAttempts: DefaultSetupAttempts}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) SubmitPayment(ctx context.Context, session sessions.SessionModel, paymentData json.RawMessage) (*sessions.PaymentsResponse, error) {
	body, err := withSessionData(paymentData, session.SessionData)
	if err != nil {
		return nil, err
	}
	raw, err := r.client.DoRequest(ctx, httpclient.RequestOptions{
		Method:         http.MethodPost,
		Path:           endpoint(session.ID, EndpointPayments),
		Body:           body,
		IdempotencyKey: uuid.New().String(),
	})
	if err != nil {
		return nil, wrapError(EndpointPayments, err)
	}
	return decode[sessions.PaymentsResponse](ctx, EndpointPayments, raw)
}

func (r *Repository) SubmitDetails(ctx context.Context, session sessions.SessionModel, details json.RawMessage) (*sessions.DetailsResponse, error) {
	body, err := withSessionData(details, session.SessionData)
	if err != nil {
		return nil, err
	}
	return post[sessions.DetailsResponse](ctx, r.client, session.ID, EndpointPaymentDetails, body)
}

func (r *Repository) CheckBalance(ctx context.Context, session sessions.SessionModel, paymentMethod json.RawMessage) (*sessions.BalanceResponse, error) {
	if !gjson.ValidBytes(paymentMethod) || !gjson.ParseBytes(paymentMethod).IsObject() {
		return nil, ErrInvalidPayload.Msg("payment method must be a json object")
	}
	body, err := sjson.SetRawBytes(sessionBody(session.SessionData), "paymentMethod", paymentMethod)
	if err != nil {
		return nil, ErrInvalidPayload.Err(err)
	}
	return post[sessions.BalanceResponse](ctx, r.client, session.ID, EndpointBalance, body)
}

func (r *Repository) CreateOrder(ctx context.Context, session sessions.SessionModel) (*sessions.CreateOrderResponse, error) {
	return post[sessions.CreateOrderResponse](ctx, r.client, session.ID, EndpointOrders, sessionBody(session.SessionData))
}

func (r *Repository) CancelOrder(ctx context.Context, session sessions.SessionModel, order sessions.OrderRequest) (*sessions.CancelOrderResponse, error) {
	body, err := withOrder(sessionBody(session.SessionData), &order)
	if err != nil {
		return nil, err
	}
	return post[sessions.CancelOrderResponse](ctx, r.client, session.ID, EndpointCancelOrder, body)
}

// SetupSession is retried with backoff since it does not change session state.
func (r *Repository) SetupSession(ctx context.Context, session sessions.SessionModel, order *sessions.OrderRequest) (*sessions.SetupResponse, error) {
	body, err := withOrder(sessionBody(session.SessionData), order)
	if err != nil {
		return nil, err
	}
	raw, err := r.client.DoRequest(ctx, httpclient.RequestOptions{
		Method:   http.MethodPost,
		Path:     endpoint(session.ID, EndpointSetup),
		Body:     body,
		Attempts: r.setupAttempts,
	})
	if err != nil {
		return nil, wrapError(EndpointSetup, err)
	}
	return decode[sessions.SetupResponse](ctx, EndpointSetup, raw)
}

func post[T any](ctx context.Context, client httpclient.HTTPClientInterface, sessionID, op string, body []byte) (*T, error) {
	raw, err := client.PostJSON(ctx, endpoint(sessionID, op), body, nil)
	if err != nil {
		return nil, wrapError(op, err)
	}
	return decode[T](ctx, op, raw)
}

// decode checks that the response carries a session token before decoding it.
func decode[T any](ctx context.Context, op string, raw []byte) (*T, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidResponse.Msg(op + ": response is not valid json")
	}
	if gjson.GetBytes(raw, "sessionData").String() == "" {
		return nil, ErrInvalidResponse.Msg(op + ": response has no sessionData")
	}
	var out T
	if err := jsonit.Unmarshal(raw, &out); err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("operation", op).Msg("unable to decode response")
		return nil, ErrInvalidResponse.MsgErr(op+": unable to decode response", err)
	}
	return &out, nil
}

func endpoint(sessionID, op string) string {
	return "v1/sessions/" + url.PathEscape(sessionID) + "/" + op
}

func sessionBody(sessionData string) []byte {
	body, _ := sjson.SetBytes([]byte(`{}`), "sessionData", sessionData)
	return body
}

// withSessionData sets sessionData on an opaque JSON object payload.
func withSessionData(payload json.RawMessage, sessionData string) ([]byte, error) {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	if !gjson.ValidBytes(payload) || !gjson.ParseBytes(payload).IsObject() {
		return nil, ErrInvalidPayload.Msg("payload must be a json object")
	}
	body, err := sjson.SetBytes(append([]byte(nil), payload...), "sessionData", sessionData)
	if err != nil {
		return nil, ErrInvalidPayload.Err(err)
	}
	return body, nil
}

func withOrder(body []byte, order *sessions.OrderRequest) ([]byte, error) {
	if order == nil {
		return body, nil
	}
	body, err := sjson.SetBytes(body, "order.pspReference", order.PspReference)
	if err != nil {
		return nil, ErrInvalidPayload.Err(err)
	}
	body, err = sjson.SetBytes(body, "order.orderData", order.OrderData)
	if err != nil {
		return nil, ErrInvalidPayload.Err(err)
	}
	return body, nil
}

// wrapError keeps context cancellation as-is and wraps everything else in
// ErrBackendCall, carrying the HTTP status when there is one.
func wrapError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	wrapped := sessions.ErrBackendCall.MsgErr(op+" call failed", err)
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		wrapped = wrapped.SetStatusCode(httpErr.StatusCode)
	}
	return wrapped
}
