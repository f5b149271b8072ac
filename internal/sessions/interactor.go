package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adyen/checkout-sessions-go/internal/sessions/eventbus"
)

// DefaultPublishTimeout bounds how long publishing waits on a slow observer.
const DefaultPublishTimeout = time.Second

// Interactor mediates every session-scoped backend call. It owns the session token and
// the takeover latch: once a merchant call reports it handled an operation, every later
// operation must be handled by the merchant too.
//
// Operations are expected to be awaited one at a time; the token store tolerates
// concurrent readers.
type Interactor struct {
	repo           Repository
	store          *SessionStore
	bus            *eventbus.EventBus
	latch          *takeoverLatch
	publishTimeout time.Duration
}

// Option configures an Interactor.
type Option func(*Interactor)

// WithEventBus publishes token changes and results on bus instead of a private one.
func WithEventBus(bus *eventbus.EventBus) Option {
	return func(i *Interactor) {
		if bus != nil {
			i.bus = bus
		}
	}
}

// WithPublishTimeout sets how long a publish waits for a full observer buffer.
func WithPublishTimeout(d time.Duration) Option {
	return func(i *Interactor) {
		i.publishTimeout = d
	}
}

// NewInteractor creates an interactor for session. isFlowTakenOver restores the latch,
// e.g. from saved state.
func NewInteractor(repo Repository, session SessionModel, isFlowTakenOver bool, opts ...Option) *Interactor {
	i := &Interactor{
		repo:           repo,
		latch:          newTakeoverLatch(isFlowTakenOver),
		publishTimeout: DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.bus == nil {
		i.bus = eventbus.New()
	}
	i.store = newSessionStore(session, i.bus, i.publishTimeout)
	return i
}

// Session returns the current session model.
func (i *Interactor) Session() SessionModel {
	return i.store.Session()
}

// Store exposes the token store for observers.
func (i *Interactor) Store() *SessionStore {
	return i.store
}

// IsFlowTakenOver reports whether the merchant has taken over the flow.
func (i *Interactor) IsFlowTakenOver() bool {
	return i.latch.isSet()
}

// SubscribeResults delivers every published call result of this session. Event.Data holds
// the result value and the topic's last segment names the operation family.
func (i *Interactor) SubscribeResults(bufferSize int) (<-chan eventbus.Event, func()) {
	return i.bus.Subscribe(Topic(i.Session().ID, "*"), bufferSize)
}

// OnPaymentsCallRequested submits a payment unless the merchant handles it.
func (i *Interactor) OnPaymentsCallRequested(ctx context.Context, paymentData json.RawMessage,
	merchantCall MerchantCall, merchantMethodName string) PaymentsCallResult {
	return checkIfCallWasHandled[PaymentsCallResult](ctx, i, KindPayments, merchantCall, merchantMethodName,
		func() PaymentsCallResult {
			resp, err := callBackend(ctx, func(ctx context.Context) (*PaymentsResponse, error) {
				return i.repo.SubmitPayment(ctx, i.Session(), paymentData)
			})
			if err != nil {
				return PaymentsError{Err: err}
			}
			i.store.UpdateSessionData(resp.SessionData)
			return ClassifyPayments(resp)
		},
		PaymentsTakenOver{})
}

// OnDetailsCallRequested submits action details unless the merchant handles them.
func (i *Interactor) OnDetailsCallRequested(ctx context.Context, details json.RawMessage,
	merchantCall MerchantCall, merchantMethodName string) DetailsCallResult {
	return checkIfCallWasHandled[DetailsCallResult](ctx, i, KindDetails, merchantCall, merchantMethodName,
		func() DetailsCallResult {
			resp, err := callBackend(ctx, func(ctx context.Context) (*DetailsResponse, error) {
				return i.repo.SubmitDetails(ctx, i.Session(), details)
			})
			if err != nil {
				return DetailsError{Err: err}
			}
			i.store.UpdateSessionData(resp.SessionData)
			return ClassifyDetails(resp)
		},
		DetailsTakenOver{})
}

// CheckBalance checks the balance of a partial-payment instrument unless the merchant handles it.
func (i *Interactor) CheckBalance(ctx context.Context, paymentMethod json.RawMessage,
	merchantCall MerchantCall, merchantMethodName string) BalanceCallResult {
	return checkIfCallWasHandled[BalanceCallResult](ctx, i, KindBalance, merchantCall, merchantMethodName,
		func() BalanceCallResult {
			resp, err := callBackend(ctx, func(ctx context.Context) (*BalanceResponse, error) {
				return i.repo.CheckBalance(ctx, i.Session(), paymentMethod)
			})
			if err != nil {
				return BalanceError{Err: err}
			}
			i.store.UpdateSessionData(resp.SessionData)
			return ClassifyBalance(resp)
		},
		BalanceTakenOver{})
}

// CreateOrder creates a partial-payment order unless the merchant handles it.
func (i *Interactor) CreateOrder(ctx context.Context, merchantCall MerchantCall, merchantMethodName string) CreateOrderCallResult {
	return checkIfCallWasHandled[CreateOrderCallResult](ctx, i, KindCreateOrder, merchantCall, merchantMethodName,
		func() CreateOrderCallResult {
			resp, err := callBackend(ctx, func(ctx context.Context) (*CreateOrderResponse, error) {
				return i.repo.CreateOrder(ctx, i.Session())
			})
			if err != nil {
				return CreateOrderError{Err: err}
			}
			i.store.UpdateSessionData(resp.SessionData)
			return ClassifyCreateOrder(resp)
		},
		CreateOrderTakenOver{})
}

// CancelOrder cancels order unless the merchant handles it.
func (i *Interactor) CancelOrder(ctx context.Context, order OrderRequest,
	merchantCall MerchantCall, merchantMethodName string) CancelOrderCallResult {
	return checkIfCallWasHandled[CancelOrderCallResult](ctx, i, KindCancelOrder, merchantCall, merchantMethodName,
		func() CancelOrderCallResult {
			resp, err := callBackend(ctx, func(ctx context.Context) (*CancelOrderResponse, error) {
				return i.repo.CancelOrder(ctx, i.Session(), order)
			})
			if err != nil {
				return CancelOrderError{Err: err}
			}
			i.store.UpdateSessionData(resp.SessionData)
			return CancelOrderSuccessful{}
		},
		CancelOrderTakenOver{})
}

// UpdatePaymentMethods refreshes the payment methods through session setup, in the
// context of order when one is given. It is never delegated to the merchant.
func (i *Interactor) UpdatePaymentMethods(ctx context.Context, order *OrderResponse) UpdatePaymentMethodsCallResult {
	resp, err := callBackend(ctx, func(ctx context.Context) (*SetupResponse, error) {
		return i.repo.SetupSession(ctx, i.Session(), order.Request())
	})
	var result UpdatePaymentMethodsCallResult
	if err != nil {
		result = UpdatePaymentMethodsError{Err: err}
	} else {
		i.store.UpdateSessionData(resp.SessionData)
		result = ClassifyUpdatePaymentMethods(resp, order)
	}
	i.report(ctx, KindUpdatePaymentMethods, result)
	return result
}

// checkIfCallWasHandled gives the merchant the first chance at a call. A handled call
// trips the takeover latch and yields takenOver. A declined call runs internalCall,
// unless the flow was already taken over, which is a broken integration and panics.
func checkIfCallWasHandled[R any](ctx context.Context, i *Interactor, kind string,
	merchantCall MerchantCall, merchantMethodName string, internalCall func() R, takenOver R) R {
	handled := merchantCall != nil && merchantCall()

	var result R
	switch {
	case handled:
		if i.latch.trip() {
			log.Ctx(ctx).Info().
				Str("session_id", i.Session().ID).
				Str("operation", kind).
				Msg("session flow taken over by merchant")
		}
		result = takenOver
	case i.latch.isSet():
		err := ErrMethodNotImplemented.New(fmt.Sprintf(
			"Sessions flow was already taken over in a previous call, %s should be implemented", merchantMethodName))
		log.Ctx(ctx).Error().
			Str("session_id", i.Session().ID).
			Str("operation", kind).
			Err(err).
			Msg("merchant declined a call after taking over the flow")
		panic(err)
	default:
		result = internalCall()
	}

	i.report(ctx, kind, result)
	return result
}

// callBackend runs fn and discards its outcome if ctx ended meanwhile.
func callBackend[T any](ctx context.Context, fn func(ctx context.Context) (*T, error)) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := fn(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrBackendCall.Msg("empty response")
	}
	return resp, nil
}

// report logs the result and publishes it, unless the call was cancelled.
func (i *Interactor) report(ctx context.Context, kind string, result any) {
	sessionID := i.Session().ID
	outcome := OutcomeOf(result)
	if ctx.Err() != nil {
		log.Ctx(ctx).Debug().
			Str("session_id", sessionID).
			Str("operation", kind).
			Msg("call cancelled, result not published")
		return
	}
	ev := log.Ctx(ctx).Debug().
		Str("session_id", sessionID).
		Str("operation", kind).
		Str("outcome", string(outcome))
	if err := ErrorOf(result); err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("session call completed")
	i.bus.Publish(Topic(sessionID, kind), result, i.publishTimeout)
}
