package sandbox

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/adyen/checkout-sessions-go/internal/common"
	"github.com/adyen/checkout-sessions-go/internal/common/httpx"
	"github.com/adyen/checkout-sessions-go/internal/common/uuid"
	"github.com/adyen/checkout-sessions-go/internal/common/validation"
	"github.com/adyen/checkout-sessions-go/internal/sessions"
)

// Payment method types and markers with special sandbox behavior.
const (
	PaymentMethodRedirect = "redirect"
	PaymentMethodGiftCard = "giftcard"
	HolderNameRefuse      = "REFUSE"
	DetailsRefused        = "refused"
)

const (
	resultAuthorised      = "Authorised"
	resultRefused         = "Refused"
	resultRedirectShopper = "RedirectShopper"
)

func (s *Server) createSession(r *http.Request) (*httpx.Response, error) {
	req := &createSessionRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, errValidation(err.Error())
	}
	id, err := newSessionID()
	if err != nil {
		return nil, httpx.ErrApplicationError("unable to create session id")
	}
	sess := &session{
		id:          id,
		sessionData: newSessionData(),
		amount:      sessions.Amount{Currency: req.Amount.Currency, Value: req.Amount.Value},
		returnURL:   req.ReturnURL,
		reference:   req.Reference,
		expiresAt:   s.now().Add(s.opts.SessionTTL),
		orders:      make(map[string]*order),
		pending:     make(map[string]*pendingPayment),
	}
	s.store.add(sess)

	log.Ctx(r.Context()).Info().Str("session_id", id).Msg("session created")
	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Response: &createSessionResponse{
			ID:          sess.id,
			SessionData: sess.sessionData,
			Amount:      sess.amount,
			ExpiresAt:   sess.expiresAt.UTC().Format(time.RFC3339),
			ReturnURL:   sess.returnURL,
			Reference:   sess.reference,
		},
	}, nil
}

// beginCall parses and validates the request, then returns the session locked.
// The caller must unlock it.
func (s *Server) beginCall(r *http.Request, req sessionRequest) (*session, error) {
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, errValidation(err.Error())
	}
	sess, ok := s.store.get(chi.URLParam(r, "id"))
	if !ok {
		return nil, errSessionNotFound()
	}
	sess.mu.Lock()
	if s.now().After(sess.expiresAt) {
		sess.mu.Unlock()
		return nil, errSessionExpired()
	}
	if sess.sessionData != req.token() {
		sess.mu.Unlock()
		return nil, errStaleSessionData()
	}
	return sess, nil
}

func (s *Server) setup(r *http.Request) (*httpx.Response, error) {
	req := &setupRequest{}
	sess, err := s.beginCall(r, req)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	o, err := sess.lookupOrder(req.Order)
	if err != nil {
		return nil, err
	}
	amount := sess.amount
	if o != nil {
		amount = o.remaining
	}
	storeDetails := false
	rsp := &sessions.SetupResponse{
		ID:             sess.id,
		SessionData:    sess.rotate(),
		Amount:         &amount,
		ExpiresAt:      sess.expiresAt.UTC().Format(time.RFC3339),
		PaymentMethods: paymentMethods(o != nil),
		ReturnURL:      sess.returnURL,
		Configuration:  &sessions.SessionConfiguration{EnableStoreDetails: &storeDetails},
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func paymentMethods(forOrder bool) *sessions.PaymentMethodsResponse {
	methods := []sessions.PaymentMethod{
		{Type: "scheme", Name: "Cards", Brands: []string{"visa", "mc", "amex"}},
		{Type: PaymentMethodGiftCard, Name: "Gift card", Brand: "givex"},
	}
	if !forOrder {
		methods = append(methods, sessions.PaymentMethod{Type: PaymentMethodRedirect, Name: "Online banking"})
	}
	return &sessions.PaymentMethodsResponse{PaymentMethods: methods}
}

func (s *Server) payments(r *http.Request) (*httpx.Response, error) {
	req := &paymentsRequest{}
	sess, err := s.beginCall(r, req)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	pm := gjson.ParseBytes(req.PaymentMethod)
	pmType := pm.Get("type").String()
	if pmType == "" {
		return nil, errValidation("paymentMethod.type is required")
	}
	o, err := sess.lookupOrder(req.Order)
	if err != nil {
		return nil, err
	}
	pspReference, err := common.NewReference(common.REF_TYPE_PSP)
	if err != nil {
		return nil, httpx.ErrApplicationError("unable to create psp reference")
	}

	rsp := &paymentsResponse{PspReference: pspReference}
	due := sess.due(o)

	switch {
	case pmType == PaymentMethodRedirect:
		paymentData := "pd_" + uuid.New().String()
		sess.pending[paymentData] = &pendingPayment{pspReference: pspReference, order: o, amount: due}
		rsp.ResultCode = resultRedirectShopper
		rsp.Action = &sessions.Action{
			Type:              PaymentMethodRedirect,
			PaymentMethodType: pmType,
			PaymentData:       paymentData,
			URL:               sess.returnURL + "?redirectResult=" + pspReference,
			Method:            http.MethodGet,
		}
	case strings.EqualFold(pm.Get("holderName").String(), HolderNameRefuse):
		rsp.ResultCode = resultRefused
	case pmType == PaymentMethodGiftCard:
		number := pm.Get("number").String()
		if number == "" {
			return nil, errValidation("paymentMethod.number is required")
		}
		balance := s.store.giftCardBalance(number, s.opts.GiftCardBalance)
		if balance <= 0 || (o == nil && balance < due) {
			rsp.ResultCode = resultRefused
			break
		}
		charged := s.store.chargeGiftCard(number, due, s.opts.GiftCardBalance)
		if o != nil {
			o.remaining.Value -= charged
		}
		rsp.ResultCode = resultAuthorised
	default:
		if o != nil {
			o.remaining.Value = 0
		}
		rsp.ResultCode = resultAuthorised
	}

	if o != nil {
		rsp.Order = o.response()
	}
	if rsp.ResultCode == resultAuthorised && (o == nil || o.remaining.Value == 0) {
		rsp.SessionResult = sessionResult(pspReference)
	}
	rsp.SessionData = sess.rotate()

	log.Ctx(r.Context()).Debug().
		Str("session_id", sess.id).
		Str("payment_method", pmType).
		Str("result_code", rsp.ResultCode).
		Msg("payment processed")
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func (s *Server) paymentDetails(r *http.Request) (*httpx.Response, error) {
	req := &detailsRequest{}
	sess, err := s.beginCall(r, req)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	details := gjson.ParseBytes(req.Details)
	if !details.IsObject() {
		return nil, errValidation("details must be an object")
	}

	rsp := &sessions.DetailsResponse{ResultCode: resultAuthorised}
	var pspReference string
	if p, ok := sess.pending[req.PaymentData]; ok {
		delete(sess.pending, req.PaymentData)
		pspReference = p.pspReference
		if details.Get("redirectResult").String() == DetailsRefused {
			rsp.ResultCode = resultRefused
		} else if p.order != nil {
			p.order.remaining.Value = max(p.order.remaining.Value-p.amount, 0)
		}
		if p.order != nil {
			rsp.Order = p.order.response()
		}
	} else if details.Get("redirectResult").String() == DetailsRefused {
		rsp.ResultCode = resultRefused
	}
	if pspReference == "" {
		pspReference, _ = common.NewReference(common.REF_TYPE_PSP)
	}
	if rsp.ResultCode == resultAuthorised && !rsp.Order.HasRemainingAmount() {
		rsp.SessionResult = sessionResult(pspReference)
	}
	rsp.SessionData = sess.rotate()
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func (s *Server) paymentMethodBalance(r *http.Request) (*httpx.Response, error) {
	req := &balanceRequest{}
	sess, err := s.beginCall(r, req)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	pm := gjson.ParseBytes(req.PaymentMethod)
	if pm.Get("type").String() != PaymentMethodGiftCard {
		return nil, errUnsupported("balance check is only supported for gift cards")
	}
	number := pm.Get("number").String()
	if number == "" {
		return nil, errValidation("paymentMethod.number is required")
	}

	rsp := &sessions.BalanceResponse{
		Balance: sessions.Amount{
			Currency: sess.amount.Currency,
			Value:    s.store.giftCardBalance(number, s.opts.GiftCardBalance),
		},
	}
	if s.opts.TransactionLimit > 0 {
		rsp.TransactionLimit = &sessions.Amount{Currency: sess.amount.Currency, Value: s.opts.TransactionLimit}
	}
	rsp.SessionData = sess.rotate()
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func (s *Server) createOrder(r *http.Request) (*httpx.Response, error) {
	req := &createOrderRequest{}
	sess, err := s.beginCall(r, req)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	pspReference, err := common.NewReference(common.REF_TYPE_ORDER)
	if err != nil {
		return nil, httpx.ErrApplicationError("unable to create order reference")
	}
	o := &order{
		pspReference: pspReference,
		orderData:    "od_" + uuid.New().String(),
		amount:       sess.amount,
		remaining:    sess.amount,
		expiresAt:    sess.expiresAt,
	}
	sess.orders[o.pspReference] = o

	rsp := &createOrderResponse{
		CreateOrderResponse: sessions.CreateOrderResponse{
			SessionData:  sess.rotate(),
			PspReference: o.pspReference,
			OrderData:    o.orderData,
		},
		Amount:          o.amount,
		RemainingAmount: o.remaining,
		ExpiresAt:       o.expiresAt.UTC().Format(time.RFC3339),
	}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func (s *Server) cancelOrder(r *http.Request) (*httpx.Response, error) {
	req := &cancelOrderRequest{}
	sess, err := s.beginCall(r, req)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if _, err := sess.lookupOrder(&req.Order); err != nil {
		return nil, err
	}
	delete(sess.orders, req.Order.PspReference)

	rsp := &sessions.CancelOrderResponse{SessionData: sess.rotate(), Status: "Received"}
	return &httpx.Response{StatusCode: http.StatusOK, Response: rsp}, nil
}

func sessionResult(pspReference string) string {
	return "sr_" + pspReference
}
