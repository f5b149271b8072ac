package eventhandler

import (
	"encoding/json"

	"github.com/adyen/checkout-sessions-go/internal/sessions"
)

// Callback receives the outcome of component events.
type Callback interface {
	OnLoading(loading bool)
	OnAction(action *sessions.Action)
	OnFinished(result sessions.SessionPaymentResult)
	OnStateChanged(state ComponentState)
	OnError(err *ComponentError)
}

// SubmitHandler is implemented by callbacks that may make the payments call themselves.
// OnSubmit reports whether it did.
type SubmitHandler interface {
	OnSubmit(state ComponentState) bool
}

// AdditionalDetailsHandler is implemented by callbacks that may submit action details
// themselves. OnAdditionalDetails reports whether it did.
type AdditionalDetailsHandler interface {
	OnAdditionalDetails(data json.RawMessage) bool
}

// Merchant hook names, as reported when a taken over flow is not handled.
const (
	OnSubmitMethod            = "onSubmit"
	OnAdditionalDetailsMethod = "onAdditionalDetails"
)
