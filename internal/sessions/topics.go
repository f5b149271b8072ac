package sessions

import "fmt"

// Event kinds published on the session bus. Topics have the form session.<id>.<kind>.
const (
	KindToken                = "token"
	KindPayments             = "payments"
	KindDetails              = "details"
	KindBalance              = "balance"
	KindCreateOrder          = "createOrder"
	KindCancelOrder          = "cancelOrder"
	KindUpdatePaymentMethods = "updatePaymentMethods"
)

// Topic returns the bus topic for kind events of the session. Pass "*" as kind to match all.
func Topic(sessionID, kind string) string {
	return fmt.Sprintf("session.%s.%s", sessionID, kind)
}
