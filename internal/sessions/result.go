package sessions

// Each operation family has a closed set of outcomes. The unexported marker method keeps
// the sets closed to this package; callers switch on the concrete type.

// Outcome names a result variant for logging and display.
type Outcome string

const (
	OutcomeAction                Outcome = "action"
	OutcomeFinished              Outcome = "finished"
	OutcomeNotFullyPaidOrder     Outcome = "not_fully_paid_order"
	OutcomeRefusedPartialPayment Outcome = "refused_partial_payment"
	OutcomeSuccessful            Outcome = "successful"
	OutcomeError                 Outcome = "error"
	OutcomeTakenOver             Outcome = "taken_over"
)

// PaymentsCallResult is the outcome of OnPaymentsCallRequested.
type PaymentsCallResult interface {
	paymentsOutcome() Outcome
}

type (
	PaymentsAction                struct{ Action *Action }
	PaymentsFinished              struct{ Result SessionPaymentResult }
	PaymentsNotFullyPaidOrder     struct{ Result SessionPaymentResult }
	PaymentsRefusedPartialPayment struct{ Result SessionPaymentResult }
	PaymentsError                 struct{ Err error }
	PaymentsTakenOver             struct{}
)

func (PaymentsAction) paymentsOutcome() Outcome { return OutcomeAction }
func (PaymentsFinished) paymentsOutcome() Outcome { return OutcomeFinished }
func (PaymentsNotFullyPaidOrder) paymentsOutcome() Outcome { return OutcomeNotFullyPaidOrder }
func (PaymentsRefusedPartialPayment) paymentsOutcome() Outcome { return OutcomeRefusedPartialPayment }
func (PaymentsError) paymentsOutcome() Outcome { return OutcomeError }
func (PaymentsTakenOver) paymentsOutcome() Outcome { return OutcomeTakenOver }

// DetailsCallResult is the outcome of OnDetailsCallRequested.
type DetailsCallResult interface {
	detailsOutcome() Outcome
}

type (
	DetailsAction    struct{ Action *Action }
	DetailsFinished  struct{ Result SessionPaymentResult }
	DetailsError     struct{ Err error }
	DetailsTakenOver struct{}
)

func (DetailsAction) detailsOutcome() Outcome { return OutcomeAction }
func (DetailsFinished) detailsOutcome() Outcome { return OutcomeFinished }
func (DetailsError) detailsOutcome() Outcome { return OutcomeError }
func (DetailsTakenOver) detailsOutcome() Outcome { return OutcomeTakenOver }

// BalanceCallResult is the outcome of CheckBalance.
type BalanceCallResult interface {
	balanceOutcome() Outcome
}

type (
	BalanceSuccessful struct{ Balance BalanceResult }
	BalanceError      struct{ Err error }
	BalanceTakenOver  struct{}
)

func (BalanceSuccessful) balanceOutcome() Outcome { return OutcomeSuccessful }
func (BalanceError) balanceOutcome() Outcome { return OutcomeError }
func (BalanceTakenOver) balanceOutcome() Outcome { return OutcomeTakenOver }

// CreateOrderCallResult is the outcome of CreateOrder.
type CreateOrderCallResult interface {
	createOrderOutcome() Outcome
}

type (
	CreateOrderSuccessful struct{ Order OrderResponse }
	CreateOrderError      struct{ Err error }
	CreateOrderTakenOver  struct{}
)

func (CreateOrderSuccessful) createOrderOutcome() Outcome { return OutcomeSuccessful }
func (CreateOrderError) createOrderOutcome() Outcome { return OutcomeError }
func (CreateOrderTakenOver) createOrderOutcome() Outcome { return OutcomeTakenOver }

// CancelOrderCallResult is the outcome of CancelOrder.
type CancelOrderCallResult interface {
	cancelOrderOutcome() Outcome
}

type (
	CancelOrderSuccessful struct{}
	CancelOrderError      struct{ Err error }
	CancelOrderTakenOver  struct{}
)

func (CancelOrderSuccessful) cancelOrderOutcome() Outcome { return OutcomeSuccessful }
func (CancelOrderError) cancelOrderOutcome() Outcome { return OutcomeError }
func (CancelOrderTakenOver) cancelOrderOutcome() Outcome { return OutcomeTakenOver }

// UpdatePaymentMethodsCallResult is the outcome of UpdatePaymentMethods. This family has no
// takeover variant.
type UpdatePaymentMethodsCallResult interface {
	updatePaymentMethodsOutcome() Outcome
}

type (
	UpdatePaymentMethodsSuccessful struct {
		PaymentMethods PaymentMethodsResponse
		Order          *OrderResponse
	}
	UpdatePaymentMethodsError struct{ Err error }
)

func (UpdatePaymentMethodsSuccessful) updatePaymentMethodsOutcome() Outcome { return OutcomeSuccessful }
func (UpdatePaymentMethodsError) updatePaymentMethodsOutcome() Outcome { return OutcomeError }

// OutcomeOf returns the variant name of any session call result, or "" for other values.
func OutcomeOf(result any) Outcome {
	switch r := result.(type) {
	case PaymentsCallResult:
		return r.paymentsOutcome()
	case DetailsCallResult:
		return r.detailsOutcome()
	case BalanceCallResult:
		return r.balanceOutcome()
	case CreateOrderCallResult:
		return r.createOrderOutcome()
	case CancelOrderCallResult:
		return r.cancelOrderOutcome()
	case UpdatePaymentMethodsCallResult:
		return r.updatePaymentMethodsOutcome()
	}
	return ""
}

// ErrorOf returns the error carried by an Error variant of any family, nil otherwise.
func ErrorOf(result any) error {
	switch r := result.(type) {
	case PaymentsError:
		return r.Err
	case DetailsError:
		return r.Err
	case BalanceError:
		return r.Err
	case CreateOrderError:
		return r.Err
	case CancelOrderError:
		return r.Err
	case UpdatePaymentMethodsError:
		return r.Err
	}
	return nil
}
