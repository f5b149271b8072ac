package sandbox

import (
	"strings"
	"sync"
	"time"

	"github.com/adyen/checkout-sessions-go/internal/common"
	"github.com/adyen/checkout-sessions-go/internal/common/uuid"
	"github.com/adyen/checkout-sessions-go/internal/sessions"
)

type order struct {
	pspReference string
	orderData    string
	amount       sessions.Amount
	remaining    sessions.Amount
	expiresAt    time.Time
}

func (o *order) response() *sessions.OrderResponse {
	amount := o.amount
	remaining := o.remaining
	return &sessions.OrderResponse{
		PspReference:    o.pspReference,
		OrderData:       o.orderData,
		Amount:          &amount,
		RemainingAmount: &remaining,
	}
}

// pendingPayment is a redirect payment waiting for its details call.
type pendingPayment struct {
	pspReference string
	order        *order
	amount       int64
}

type session struct {
	mu sync.Mutex

	id          string
	sessionData string
	amount      sessions.Amount
	returnURL   string
	reference   string
	expiresAt   time.Time
	orders      map[string]*order
	pending     map[string]*pendingPayment // paymentData -> payment
}

// rotate replaces the session token and returns the new one.
func (s *session) rotate() string {
	s.sessionData = newSessionData()
	return s.sessionData
}

func (s *session) lookupOrder(ref *orderRef) (*order, error) {
	if ref == nil {
		return nil, nil
	}
	o, ok := s.orders[ref.PspReference]
	if !ok || o.orderData != ref.OrderData {
		return nil, errOrderNotFound()
	}
	return o, nil
}

// due is what the next payment must cover.
func (s *session) due(o *order) int64 {
	if o != nil {
		return o.remaining.Value
	}
	return s.amount.Value
}

type store struct {
	mu        sync.RWMutex
	sessions  map[string]*session
	giftCards map[string]int64
}

func newStore() *store {
	return &store{
		sessions:  make(map[string]*session),
		giftCards: make(map[string]int64),
	}
}

func (st *store) add(s *session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.id] = s
}

func (st *store) get(id string) (*session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// giftCardBalance returns the balance of a card, seeding unseen cards with initial.
// Cards ending in 0000 are always empty.
func (st *store) giftCardBalance(number string, initial int64) int64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	if strings.HasSuffix(number, "0000") {
		return 0
	}
	balance, ok := st.giftCards[number]
	if !ok {
		balance = initial
		st.giftCards[number] = balance
	}
	return balance
}

// chargeGiftCard debits up to amount and returns what was charged.
func (st *store) chargeGiftCard(number string, amount, initial int64) int64 {
	balance := st.giftCardBalance(number, initial)
	charged := min(balance, amount)

	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.giftCards[number]; ok {
		st.giftCards[number] = balance - charged
	}
	return charged
}

func newSessionID() (string, error) {
	ref, err := common.NewReference(common.REF_TYPE_PSP)
	if err != nil {
		return "", err
	}
	return "CS" + ref, nil
}

func newSessionData() string {
	return "Ab02b4c0!" + uuid.New().String()
}
