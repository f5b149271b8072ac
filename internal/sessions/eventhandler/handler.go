// Package eventhandler drives a session interactor from payment component events and
// reports the outcome to a merchant callback. Token rotations and takeover are written
// to a saved state so the flow can be resumed.
package eventhandler

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/adyen/checkout-sessions-go/internal/sessions"
	"github.com/adyen/checkout-sessions-go/internal/sessions/eventbus"
	"github.com/adyen/checkout-sessions-go/internal/sessions/savedstate"
)

var ErrInvalidCallback = sessions.ErrSessionError.New("callback must not be nil")

const tokenBufferSize = 16

// Handler routes component events for one session.
type Handler struct {
	interactor *sessions.Interactor
	state      savedstate.Store

	mu          sync.Mutex
	unsubscribe func()
	done        chan struct{}
}

// New returns a handler for interactor that persists to state.
func New(interactor *sessions.Interactor, state savedstate.Store) *Handler {
	return &Handler{interactor: interactor, state: state}
}

// Initialize saves the current session and starts writing every token change to the
// saved state. Calling it again is a no-op until Close.
func (h *Handler) Initialize(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unsubscribe != nil {
		return nil
	}

	err := h.state.Save(ctx, savedstate.State{
		Session:         h.interactor.Session(),
		IsFlowTakenOver: h.interactor.IsFlowTakenOver(),
	})
	if err != nil {
		return err
	}

	ch, unsubscribe := h.interactor.Store().Subscribe(tokenBufferSize)
	h.unsubscribe = unsubscribe
	h.done = make(chan struct{})
	go h.persistTokens(context.WithoutCancel(ctx), ch, h.done)
	return nil
}

func (h *Handler) persistTokens(ctx context.Context, ch <-chan eventbus.Event, done chan struct{}) {
	defer close(done)
	for event := range ch {
		session, ok := event.Data.(sessions.SessionModel)
		if !ok {
			continue
		}
		if err := h.state.UpdateSessionData(ctx, session.ID, session.SessionData); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("session_id", session.ID).Msg("failed to save session data")
		}
	}
}

// Close stops persisting tokens once every pending change is written.
func (h *Handler) Close() {
	h.mu.Lock()
	unsubscribe, done := h.unsubscribe, h.done
	h.unsubscribe, h.done = nil, nil
	h.mu.Unlock()

	if unsubscribe == nil {
		return
	}
	unsubscribe()
	<-done
}

// OnPaymentComponentEvent handles event and reports to callback. A nil callback panics.
func (h *Handler) OnPaymentComponentEvent(ctx context.Context, event Event, callback Callback) {
	if callback == nil {
		panic(ErrInvalidCallback)
	}
	switch e := event.(type) {
	case Submit:
		h.onSubmit(ctx, e.State, callback)
	case ActionDetails:
		h.onActionDetails(ctx, e, callback)
	case StateChanged:
		callback.OnStateChanged(e.State)
	case Error:
		callback.OnError(AsComponentError(e.Err))
	}
}

func (h *Handler) onSubmit(ctx context.Context, state ComponentState, callback Callback) {
	merchantCall := func() bool {
		if s, ok := callback.(SubmitHandler); ok {
			return s.OnSubmit(state)
		}
		return false
	}

	callback.OnLoading(true)
	result := h.interactor.OnPaymentsCallRequested(ctx, state.Data, merchantCall, OnSubmitMethod)
	callback.OnLoading(false)

	switch r := result.(type) {
	case sessions.PaymentsAction:
		callback.OnAction(r.Action)
	case sessions.PaymentsError:
		callback.OnError(AsComponentError(r.Err))
	case sessions.PaymentsFinished:
		callback.OnFinished(r.Result)
	case sessions.PaymentsNotFullyPaidOrder:
		callback.OnFinished(r.Result)
	case sessions.PaymentsRefusedPartialPayment:
		callback.OnFinished(r.Result)
	case sessions.PaymentsTakenOver:
		h.setFlowTakenOver(ctx)
	}
}

func (h *Handler) onActionDetails(ctx context.Context, event ActionDetails, callback Callback) {
	merchantCall := func() bool {
		if d, ok := callback.(AdditionalDetailsHandler); ok {
			return d.OnAdditionalDetails(event.Data)
		}
		return false
	}

	callback.OnLoading(true)
	result := h.interactor.OnDetailsCallRequested(ctx, event.Data, merchantCall, OnAdditionalDetailsMethod)
	callback.OnLoading(false)

	switch r := result.(type) {
	case sessions.DetailsAction:
		callback.OnAction(r.Action)
	case sessions.DetailsError:
		callback.OnError(AsComponentError(r.Err))
	case sessions.DetailsFinished:
		callback.OnFinished(r.Result)
	case sessions.DetailsTakenOver:
		h.setFlowTakenOver(ctx)
	}
}

func (h *Handler) setFlowTakenOver(ctx context.Context) {
	id := h.interactor.Session().ID
	if err := h.state.SetFlowTakenOver(ctx, id); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("session_id", id).Msg("failed to save flow takeover")
	}
}
