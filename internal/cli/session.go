package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/adyen/checkout-sessions-go/internal/common/httpclient"
	"github.com/adyen/checkout-sessions-go/internal/sessions"
	"github.com/adyen/checkout-sessions-go/internal/sessions/backend"
	"github.com/adyen/checkout-sessions-go/internal/sessions/eventbus"
	"github.com/adyen/checkout-sessions-go/internal/sessions/eventhandler"
	"github.com/adyen/checkout-sessions-go/internal/sessions/savedstate"
)

// EnvSessionID names the session when --session is not given.
const EnvSessionID = "CHECKOUT_SESSION_ID"

type sessionFlags struct {
	sessionID       string
	file            string
	merchantHandled bool
	pspReference    string
	orderData       string
}

func (f *sessionFlags) order() *sessions.OrderResponse {
	if f.pspReference == "" && f.orderData == "" {
		return nil
	}
	return &sessions.OrderResponse{PspReference: f.pspReference, OrderData: f.orderData}
}

func (f *sessionFlags) merchantCall() sessions.MerchantCall {
	handled := f.merchantHandled
	return func() bool { return handled }
}

func (o *options) newSessionCmd() *cobra.Command {
	f := &sessionFlags{}
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Drive a checkout session",
	}
	sessionCmd.PersistentFlags().StringVarP(&f.sessionID, "session", "s", os.Getenv(EnvSessionID), "Session id")

	withFile := func(cmd *cobra.Command) *cobra.Command {
		cmd.Flags().StringVarP(&f.file, "file", "f", "", "YAML or JSON payload file, - for stdin")
		cmd.MarkFlagRequired("file")
		return cmd
	}
	withMerchant := func(cmd *cobra.Command) *cobra.Command {
		cmd.Flags().BoolVarP(&f.merchantHandled, "merchant-handled", "m", false, "Report the call as handled by the merchant")
		return cmd
	}
	withOrder := func(cmd *cobra.Command) *cobra.Command {
		cmd.Flags().StringVar(&f.pspReference, "psp-reference", "", "Order psp reference")
		cmd.Flags().StringVar(&f.orderData, "order-data", "", "Order data")
		return cmd
	}

	sessionCmd.AddCommand(o.newSessionCreateCmd())
	sessionCmd.AddCommand(withOrder(o.newSessionSetupCmd(f)))
	sessionCmd.AddCommand(o.newSessionShowCmd(f))
	sessionCmd.AddCommand(withOrder(withMerchant(withFile(o.newSessionPayCmd(f)))))
	sessionCmd.AddCommand(withMerchant(withFile(o.newSessionDetailsCmd(f))))
	sessionCmd.AddCommand(withMerchant(withFile(o.newSessionBalanceCmd(f))))
	sessionCmd.AddCommand(withOrder(o.newSessionMethodsCmd(f)))

	orderCmd := &cobra.Command{
		Use:   "order",
		Short: "Create or cancel a partial-payment order",
	}
	orderCmd.AddCommand(withMerchant(o.newOrderCreateCmd(f)))
	cancelCmd := withMerchant(withOrder(o.newOrderCancelCmd(f)))
	cancelCmd.MarkFlagRequired("psp-reference")
	cancelCmd.MarkFlagRequired("order-data")
	orderCmd.AddCommand(cancelCmd)
	sessionCmd.AddCommand(orderCmd)
	return sessionCmd
}

// sessionEnv is everything a command needs to continue a saved session.
type sessionEnv struct {
	interactor *sessions.Interactor
	handler    *eventhandler.Handler
	state      savedstate.Store
	results    <-chan eventbus.Event
	stop       func()
}

func (o *options) repository() *backend.Repository {
	client := httpclient.NewClient(&o.cfg.Client)
	return backend.New(client, backend.WithSetupAttempts(o.cfg.Client.SetupRetries))
}

func (o *options) openState(ctx context.Context) (savedstate.Store, error) {
	return savedstate.Open(ctx, o.cfg.SavedState())
}

// openSession restores the saved session and starts persisting its token.
func (o *options) openSession(ctx context.Context, sessionID string) (*sessionEnv, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("no session given, use --session or set %s", EnvSessionID)
	}
	state, err := o.openState(ctx)
	if err != nil {
		return nil, err
	}
	interactor, err := savedstate.Interactor(ctx, state, o.repository(), sessionID)
	if err != nil {
		state.Close()
		if errors.Is(err, savedstate.ErrStateNotFound) {
			return nil, fmt.Errorf("session %s not found, run \"checkout session setup\" first", sessionID)
		}
		return nil, err
	}
	handler := eventhandler.New(interactor, state)
	if err := handler.Initialize(ctx); err != nil {
		state.Close()
		return nil, err
	}
	results, stop := interactor.SubscribeResults(8)
	return &sessionEnv{
		interactor: interactor,
		handler:    handler,
		state:      state,
		results:    results,
		stop:       stop,
	}, nil
}

func (e *sessionEnv) Close() {
	e.stop()
	e.handler.Close()
	e.state.Close()
}

// lastOutcome returns the outcome of the call that just returned.
func (e *sessionEnv) lastOutcome() sessions.Outcome {
	var outcome sessions.Outcome
	for {
		select {
		case ev, ok := <-e.results:
			if !ok {
				return outcome
			}
			outcome = sessions.OutcomeOf(ev.Data)
		default:
			return outcome
		}
	}
}

func (e *sessionEnv) saveTakeover(ctx context.Context, outcome sessions.Outcome) error {
	if outcome != sessions.OutcomeTakenOver {
		return nil
	}
	return e.state.SetFlowTakenOver(ctx, e.interactor.Session().ID)
}

// recoverTakeover turns the panic raised when a taken over flow is not handled by the
// merchant into a command error.
func recoverTakeover(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok && errors.Is(e, sessions.ErrMethodNotImplemented) {
			*err = e
			return
		}
		panic(r)
	}
}

type createSessionRequest struct {
	Amount    sessions.Amount `json:"amount"`
	ReturnURL string          `json:"returnUrl"`
	Reference string          `json:"reference,omitempty"`
}

func (o *options) newSessionCreateCmd() *cobra.Command {
	req := createSessionRequest{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session on the sandbox and save it",
		Long: `Create a session on the sandbox and save it. Against a real backend, sessions are
created by the merchant server; use "checkout session setup" with its id and data.

Examples:
  checkout session create --amount 1000 --currency EUR`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			body, err := jsonit.Marshal(req)
			if err != nil {
				return err
			}
			client := httpclient.NewClient(&o.cfg.Client)
			raw, err := client.PostJSON(ctx, "v1/sessions", body, nil)
			if err != nil {
				return o.printError(cmd, err)
			}
			var created sessions.SetupResponse
			if err := jsonit.Unmarshal(raw, &created); err != nil {
				return fmt.Errorf("failed to parse response: %v", err)
			}
			model, err := sessions.SessionModelFromSetup(&created)
			if err != nil {
				return err
			}
			if err := o.saveNewSession(ctx, model); err != nil {
				return err
			}
			return o.printResult(cmd, "created", map[string]any{
				"id":          created.ID,
				"sessionData": created.SessionData,
				"amount":      created.Amount,
				"expiresAt":   created.ExpiresAt,
			})
		},
	}
	cmd.Flags().Int64Var(&req.Amount.Value, "amount", 1000, "Amount in minor units")
	cmd.Flags().StringVar(&req.Amount.Currency, "currency", "EUR", "Currency code")
	cmd.Flags().StringVar(&req.ReturnURL, "return-url", "https://checkout.example.com/return", "Return URL")
	cmd.Flags().StringVar(&req.Reference, "reference", "", "Merchant reference")
	return cmd
}

func (o *options) saveNewSession(ctx context.Context, model sessions.SessionModel) error {
	state, err := o.openState(ctx)
	if err != nil {
		return err
	}
	defer state.Close()
	return state.Save(ctx, savedstate.State{Session: model})
}

func (o *options) newSessionSetupCmd(f *sessionFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "setup [SESSION_ID SESSION_DATA]",
		Short: "Set up a session and list its payment methods",
		Long: `Set up a session and list its payment methods. With an id and session data the
session is saved as new; without them the saved session given by --session is set up again.

Examples:
  checkout session setup CS1234 Ab02b4c0!...`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected SESSION_ID and SESSION_DATA, or no arguments")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state, err := o.openState(ctx)
			if err != nil {
				return err
			}
			defer state.Close()

			var model sessions.SessionModel
			if len(args) == 2 {
				if model, err = sessions.NewSessionModel(args[0], args[1]); err != nil {
					return err
				}
			} else {
				saved, err := state.Load(ctx, f.sessionID)
				if err != nil {
					return fmt.Errorf("loading session %q: %w", f.sessionID, err)
				}
				model = saved.Session
			}

			setup, err := o.repository().SetupSession(ctx, model, f.order().Request())
			if err != nil {
				return o.printError(cmd, err)
			}
			model.SessionData = setup.SessionData
			if err := state.Save(ctx, savedstate.State{Session: model}); err != nil {
				return err
			}
			return o.printResult(cmd, "setup", setup)
		},
	}
}

func (o *options) newSessionShowCmd(f *sessionFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the saved state of a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			state, err := o.openState(ctx)
			if err != nil {
				return err
			}
			defer state.Close()
			saved, err := state.Load(ctx, f.sessionID)
			if err != nil {
				return o.printError(cmd, err)
			}
			return o.printResult(cmd, "saved", saved)
		},
	}
}

// cliCallback records what the event handler reports for one component event.
type cliCallback struct {
	handled bool

	value any
	err   *eventhandler.ComponentError
	order *sessions.OrderResponse
}

func (c *cliCallback) OnLoading(loading bool) {
	log.Debug().Bool("loading", loading).Msg("component loading")
}

func (c *cliCallback) OnAction(action *sessions.Action) {
	c.value = action
}

func (c *cliCallback) OnFinished(result sessions.SessionPaymentResult) {
	c.value = result
	c.order = result.Order
}

func (c *cliCallback) OnStateChanged(eventhandler.ComponentState) {}

func (c *cliCallback) OnError(err *eventhandler.ComponentError) {
	c.err = err
}

func (c *cliCallback) OnSubmit(eventhandler.ComponentState) bool {
	return c.handled
}

func (c *cliCallback) OnAdditionalDetails(json.RawMessage) bool {
	return c.handled
}

// addOrder adds order to a payment payload that does not name one.
func addOrder(payload json.RawMessage, order *sessions.OrderResponse) (json.RawMessage, error) {
	if order == nil || gjson.GetBytes(payload, "order").Exists() {
		return payload, nil
	}
	out, err := sjson.SetBytes(payload, "order.pspReference", order.PspReference)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(out, "order.orderData", order.OrderData)
}

func (o *options) reportComponentResult(cmd *cobra.Command, env *sessionEnv, cb *cliCallback) error {
	outcome := env.lastOutcome()
	if err := env.saveTakeover(cmd.Context(), outcome); err != nil {
		return err
	}
	if cb.err != nil {
		return o.printError(cmd, cb.err)
	}
	return o.printResult(cmd, string(outcome), cb.value)
}

func (o *options) newSessionPayCmd(f *sessionFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "pay -f PAYLOAD_FILE",
		Short: "Submit payments",
		Long: `Submit the payment in each document of the payload file. After a partial payment the
next document pays the rest of the order; any other outcome ends the flow.

Examples:
  # Pay with a card
  checkout session pay -s CS1234 -f card.yaml

  # Pay partially with a gift card, then with a card
  checkout session pay -s CS1234 -f giftcard-then-card.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer recoverTakeover(&err)
			ctx := cmd.Context()
			payloads, err := ReadPayloads(f.file)
			if err != nil {
				return err
			}
			if len(payloads) == 0 {
				return fmt.Errorf("no payment in %s", f.file)
			}
			env, err := o.openSession(ctx, f.sessionID)
			if err != nil {
				return err
			}
			defer env.Close()

			order := f.order()
			for i, payload := range payloads {
				if payload, err = addOrder(payload, order); err != nil {
					return err
				}
				cb := &cliCallback{handled: f.merchantHandled}
				event := eventhandler.Submit{State: eventhandler.ComponentState{Data: payload, IsValid: true}}
				env.handler.OnPaymentComponentEvent(ctx, event, cb)
				if err := o.reportComponentResult(cmd, env, cb); err != nil {
					return err
				}
				if !cb.order.HasRemainingAmount() || cb.err != nil {
					if rest := len(payloads) - i - 1; rest > 0 && cb.err == nil {
						warnLabel.Fprintf(cmd.ErrOrStderr(), "%d remaining payment(s) not submitted\n", rest)
					}
					return nil
				}
				order = cb.order
			}
			return nil
		},
	}
}

func (o *options) newSessionDetailsCmd(f *sessionFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "details -f DETAILS_FILE",
		Short: "Submit the details collected for an action",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer recoverTakeover(&err)
			ctx := cmd.Context()
			payload, err := ReadPayload(f.file)
			if err != nil {
				return err
			}
			env, err := o.openSession(ctx, f.sessionID)
			if err != nil {
				return err
			}
			defer env.Close()

			cb := &cliCallback{handled: f.merchantHandled}
			env.handler.OnPaymentComponentEvent(ctx, eventhandler.ActionDetails{Data: payload}, cb)
			return o.reportComponentResult(cmd, env, cb)
		},
	}
}

func (o *options) newSessionBalanceCmd(f *sessionFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "balance -f PAYMENT_METHOD_FILE",
		Short: "Check the balance of a gift card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer recoverTakeover(&err)
			ctx := cmd.Context()
			payload, err := ReadPayload(f.file)
			if err != nil {
				return err
			}
			// accept a component state as well as a bare payment method
			if pm := gjson.GetBytes(payload, "paymentMethod"); pm.IsObject() {
				payload = json.RawMessage(pm.Raw)
			}
			env, err := o.openSession(ctx, f.sessionID)
			if err != nil {
				return err
			}
			defer env.Close()

			result := env.interactor.CheckBalance(ctx, payload, f.merchantCall(), "onBalanceCheck")
			return o.reportCall(cmd, env, result)
		},
	}
}

func (o *options) newOrderCreateCmd(f *sessionFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a partial-payment order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer recoverTakeover(&err)
			ctx := cmd.Context()
			env, err := o.openSession(ctx, f.sessionID)
			if err != nil {
				return err
			}
			defer env.Close()

			result := env.interactor.CreateOrder(ctx, f.merchantCall(), "onOrderRequest")
			return o.reportCall(cmd, env, result)
		},
	}
}

func (o *options) newOrderCancelCmd(f *sessionFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel --psp-reference REF --order-data DATA",
		Short: "Cancel a partial-payment order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer recoverTakeover(&err)
			ctx := cmd.Context()
			env, err := o.openSession(ctx, f.sessionID)
			if err != nil {
				return err
			}
			defer env.Close()

			order := sessions.OrderRequest{PspReference: f.pspReference, OrderData: f.orderData}
			result := env.interactor.CancelOrder(ctx, order, f.merchantCall(), "onOrderCancel")
			return o.reportCall(cmd, env, result)
		},
	}
}

func (o *options) newSessionMethodsCmd(f *sessionFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "Refresh the payment methods, optionally for an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := o.openSession(ctx, f.sessionID)
			if err != nil {
				return err
			}
			defer env.Close()

			result := env.interactor.UpdatePaymentMethods(ctx, f.order())
			return o.reportCall(cmd, env, result)
		},
	}
}

// reportCall prints the result of a direct interactor call.
func (o *options) reportCall(cmd *cobra.Command, env *sessionEnv, result any) error {
	env.lastOutcome() // drain
	outcome := sessions.OutcomeOf(result)
	if err := env.saveTakeover(cmd.Context(), outcome); err != nil {
		return err
	}
	if err := sessions.ErrorOf(result); err != nil {
		return o.printError(cmd, err)
	}

	var value any
	switch r := result.(type) {
	case sessions.BalanceSuccessful:
		value = r.Balance
	case sessions.CreateOrderSuccessful:
		value = r.Order
	case sessions.UpdatePaymentMethodsSuccessful:
		value = map[string]any{"paymentMethods": r.PaymentMethods, "order": r.Order}
	}
	return o.printResult(cmd, string(outcome), value)
}
