package eventhandler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adyen/checkout-sessions-go/internal/sessions"
	"github.com/adyen/checkout-sessions-go/internal/sessions/savedstate"
)

type stubRepository struct {
	sessions.Repository // unused calls panic

	payments *sessions.PaymentsResponse
	details  *sessions.DetailsResponse
	err      error
}

func (s *stubRepository) SubmitPayment(context.Context, sessions.SessionModel, json.RawMessage) (*sessions.PaymentsResponse, error) {
	return s.payments, s.err
}

func (s *stubRepository) SubmitDetails(context.Context, sessions.SessionModel, json.RawMessage) (*sessions.DetailsResponse, error) {
	return s.details, s.err
}

type recordingCallback struct {
	mu       sync.Mutex
	calls    []string
	action   *sessions.Action
	finished *sessions.SessionPaymentResult
	state    *ComponentState
	err      *ComponentError
}

func (c *recordingCallback) record(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
}

func (c *recordingCallback) OnLoading(loading bool) {
	if loading {
		c.record("loading:on")
	} else {
		c.record("loading:off")
	}
}

func (c *recordingCallback) OnAction(action *sessions.Action) {
	c.action = action
	c.record("action")
}

func (c *recordingCallback) OnFinished(result sessions.SessionPaymentResult) {
	c.finished = &result
	c.record("finished")
}

func (c *recordingCallback) OnStateChanged(state ComponentState) {
	c.state = &state
	c.record("stateChanged")
}

func (c *recordingCallback) OnError(err *ComponentError) {
	c.err = err
	c.record("error")
}

// merchantCallback takes over both calls.
type merchantCallback struct {
	recordingCallback
	handled bool
}

func (m *merchantCallback) OnSubmit(ComponentState) bool { return m.handled }
func (m *merchantCallback) OnAdditionalDetails(json.RawMessage) bool { return m.handled }

func newHandler(t *testing.T, repo *stubRepository, takenOver bool) (*Handler, savedstate.Store) {
	t.Helper()
	store := savedstate.NewMemoryStore()
	interactor := sessions.NewInteractor(repo, sessions.SessionModel{ID: "CS1", SessionData: "s0"}, takenOver)
	h := New(interactor, store)
	require.NoError(t, h.Initialize(context.Background()))
	t.Cleanup(h.Close)
	return h, store
}

func TestSubmitFinished(t *testing.T) {
	repo := &stubRepository{payments: &sessions.PaymentsResponse{
		SessionData: "s1", SessionResult: "sr", ResultCode: "Authorised",
	}}
	h, store := newHandler(t, repo, false)
	cb := &recordingCallback{}

	h.OnPaymentComponentEvent(context.Background(), Submit{State: ComponentState{Data: json.RawMessage(`{}`), IsValid: true}}, cb)

	assert.Equal(t, []string{"loading:on", "loading:off", "finished"}, cb.calls)
	require.NotNil(t, cb.finished)
	assert.Equal(t, "Authorised", cb.finished.ResultCode)

	h.Close()
	saved, err := store.Load(context.Background(), "CS1")
	require.NoError(t, err)
	assert.Equal(t, "s1", saved.Session.SessionData)
	assert.False(t, saved.IsFlowTakenOver)
}

func TestSubmitRoutesEveryOutcome(t *testing.T) {
	remaining := &sessions.OrderResponse{
		PspReference:    "O1",
		OrderData:       "od",
		RemainingAmount: &sessions.Amount{Currency: "EUR", Value: 500},
	}
	tests := []struct {
		name string
		resp *sessions.PaymentsResponse
		err  error
		want string
	}{
		{name: "action", resp: &sessions.PaymentsResponse{SessionData: "s1", Action: &sessions.Action{Type: "redirect"}}, want: "action"},
		{name: "not fully paid", resp: &sessions.PaymentsResponse{SessionData: "s1", ResultCode: "Authorised", Order: remaining}, want: "finished"},
		{name: "refused partial", resp: &sessions.PaymentsResponse{SessionData: "s1", ResultCode: "Refused", Order: remaining}, want: "finished"},
		{name: "error", err: errors.New("boom"), want: "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newHandler(t, &stubRepository{payments: tt.resp, err: tt.err}, false)
			cb := &recordingCallback{}
			h.OnPaymentComponentEvent(context.Background(), Submit{}, cb)
			assert.Equal(t, []string{"loading:on", "loading:off", tt.want}, cb.calls)
		})
	}
}

func TestSubmitErrorIsComponentError(t *testing.T) {
	cause := errors.New("network down")
	h, _ := newHandler(t, &stubRepository{err: cause}, false)
	cb := &recordingCallback{}

	h.OnPaymentComponentEvent(context.Background(), Submit{}, cb)

	require.NotNil(t, cb.err)
	assert.ErrorIs(t, cb.err, cause)
}

func TestActionDetails(t *testing.T) {
	repo := &stubRepository{details: &sessions.DetailsResponse{SessionData: "s2", ResultCode: "Authorised"}}
	h, store := newHandler(t, repo, false)
	cb := &recordingCallback{}

	h.OnPaymentComponentEvent(context.Background(), ActionDetails{Data: json.RawMessage(`{"details":{}}`)}, cb)
	assert.Equal(t, []string{"loading:on", "loading:off", "finished"}, cb.calls)

	h.Close()
	saved, err := store.Load(context.Background(), "CS1")
	require.NoError(t, err)
	assert.Equal(t, "s2", saved.Session.SessionData)
}

func TestMerchantTakeoverIsSaved(t *testing.T) {
	h, store := newHandler(t, &stubRepository{}, false)
	cb := &merchantCallback{handled: true}

	h.OnPaymentComponentEvent(context.Background(), Submit{}, cb)

	assert.Equal(t, []string{"loading:on", "loading:off"}, cb.calls)
	saved, err := store.Load(context.Background(), "CS1")
	require.NoError(t, err)
	assert.True(t, saved.IsFlowTakenOver)
	assert.Equal(t, "s0", saved.Session.SessionData)
}

func TestDeclinedAfterTakeoverPanics(t *testing.T) {
	h, _ := newHandler(t, &stubRepository{}, true)
	cb := &recordingCallback{}

	assert.PanicsWithError(t, sessions.ErrMethodNotImplemented.New(
		"Sessions flow was already taken over in a previous call, "+OnAdditionalDetailsMethod+" should be implemented").Error(),
		func() {
			h.OnPaymentComponentEvent(context.Background(), ActionDetails{}, cb)
		})
}

func TestStateChangedAndError(t *testing.T) {
	h, _ := newHandler(t, &stubRepository{}, false)
	cb := &recordingCallback{}
	state := ComponentState{Data: json.RawMessage(`{"paymentMethod":{}}`), IsValid: false}

	h.OnPaymentComponentEvent(context.Background(), StateChanged{State: state}, cb)
	componentErr := &ComponentError{Cause: errors.New("card scan failed")}
	h.OnPaymentComponentEvent(context.Background(), Error{Err: componentErr}, cb)

	assert.Equal(t, []string{"stateChanged", "error"}, cb.calls)
	assert.Equal(t, &state, cb.state)
	assert.Same(t, componentErr, cb.err)
}

func TestNilCallbackPanics(t *testing.T) {
	h, _ := newHandler(t, &stubRepository{}, false)
	assert.PanicsWithValue(t, ErrInvalidCallback, func() {
		h.OnPaymentComponentEvent(context.Background(), Submit{}, nil)
	})
}

func TestInitializeIsIdempotent(t *testing.T) {
	h, _ := newHandler(t, &stubRepository{}, false)
	require.NoError(t, h.Initialize(context.Background()))
	h.Close()
	h.Close()
}
