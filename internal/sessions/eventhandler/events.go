package eventhandler

import (
	"encoding/json"
	"errors"
)

// ComponentState is the state a payment component reports, with the shopper's input as
// an opaque payment payload.
type ComponentState struct {
	Data    json.RawMessage `json:"data"`
	IsValid bool            `json:"isValid"`
}

// Event is something a payment component reported. The set is closed.
type Event interface {
	componentEvent()
}

type (
	// Submit asks for the payment to be made.
	Submit struct{ State ComponentState }
	// ActionDetails carries the data collected while handling an action.
	ActionDetails struct{ Data json.RawMessage }
	// StateChanged reports new shopper input.
	StateChanged struct{ State ComponentState }
	// Error reports a failure inside the component.
	Error struct{ Err error }
)

func (Submit) componentEvent() {}
func (ActionDetails) componentEvent() {}
func (StateChanged) componentEvent() {}
func (Error) componentEvent() {}

// ComponentError is handed to Callback.OnError when a session call fails.
type ComponentError struct {
	Cause error
}

func (e *ComponentError) Error() string {
	if e.Cause == nil {
		return "component error"
	}
	return "component error: " + e.Cause.Error()
}

func (e *ComponentError) Unwrap() error {
	return e.Cause
}

// AsComponentError returns err as a *ComponentError, wrapping it if needed.
func AsComponentError(err error) *ComponentError {
	var ce *ComponentError
	if errors.As(err, &ce) {
		return ce
	}
	return &ComponentError{Cause: err}
}
