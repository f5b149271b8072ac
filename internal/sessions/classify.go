package sessions

import "strings"

// ResultCodeRefused is the payments result code of a refused attempt.
const ResultCodeRefused = "Refused"

// ClassifyPayments maps a successful payments response to its result variant.
// An action wins over everything else; a refused attempt on an order that still has
// a remaining amount is reported apart from a successful partial payment.
func ClassifyPayments(resp *PaymentsResponse) PaymentsCallResult {
	if resp.Action != nil {
		return PaymentsAction{Action: resp.Action}
	}
	result := paymentResultOf(resp.SessionResult, resp.SessionData, resp.ResultCode, resp.Order)
	switch {
	case isRefused(resp.ResultCode) && resp.Order.HasRemainingAmount():
		return PaymentsRefusedPartialPayment{Result: result}
	case resp.Order.HasRemainingAmount():
		return PaymentsNotFullyPaidOrder{Result: result}
	default:
		return PaymentsFinished{Result: result}
	}
}

// ClassifyDetails maps a successful details response to its result variant.
func ClassifyDetails(resp *DetailsResponse) DetailsCallResult {
	if resp.Action != nil {
		return DetailsAction{Action: resp.Action}
	}
	return DetailsFinished{Result: paymentResultOf(resp.SessionResult, resp.SessionData, resp.ResultCode, resp.Order)}
}

// ClassifyBalance rejects an empty balance as a business error.
func ClassifyBalance(resp *BalanceResponse) BalanceCallResult {
	if resp.Balance.Value <= 0 {
		return BalanceError{Err: ErrNotEnoughBalance}
	}
	return BalanceSuccessful{Balance: BalanceResult{
		Balance:          resp.Balance,
		TransactionLimit: resp.TransactionLimit,
	}}
}

// ClassifyCreateOrder builds the order from a create-order response. The endpoint does
// not report amounts, so both stay unset.
func ClassifyCreateOrder(resp *CreateOrderResponse) CreateOrderCallResult {
	return CreateOrderSuccessful{Order: OrderResponse{
		PspReference: resp.PspReference,
		OrderData:    resp.OrderData,
	}}
}

// ClassifyUpdatePaymentMethods requires a setup response to carry payment methods.
func ClassifyUpdatePaymentMethods(resp *SetupResponse, order *OrderResponse) UpdatePaymentMethodsCallResult {
	if resp.PaymentMethods == nil {
		return UpdatePaymentMethodsError{Err: ErrPaymentMethodsMissing}
	}
	return UpdatePaymentMethodsSuccessful{PaymentMethods: *resp.PaymentMethods, Order: order}
}

func paymentResultOf(sessionResult, sessionData, resultCode string, order *OrderResponse) SessionPaymentResult {
	return SessionPaymentResult{
		SessionResult: sessionResult,
		SessionData:   sessionData,
		ResultCode:    resultCode,
		Order:         order,
	}
}

func isRefused(resultCode string) bool {
	return strings.EqualFold(resultCode, ResultCodeRefused)
}
