package sessions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionModel(t *testing.T) {
	m, err := NewSessionModel(" CS1 ", "token")
	require.NoError(t, err)
	assert.Equal(t, SessionModel{ID: "CS1", SessionData: "token"}, m)

	_, err = NewSessionModel("", "token")
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = NewSessionModel("CS1", "")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionModelFromSetup(t *testing.T) {
	_, err := SessionModelFromSetup(nil)
	assert.ErrorIs(t, err, ErrInvalidSession)

	var setup SetupResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "CS1",
		"sessionData": "s1",
		"amount": {"currency": "EUR", "value": 1000},
		"expiresAt": "2026-10-18T10:00:00Z",
		"paymentMethods": {"paymentMethods": [{"type": "scheme", "name": "Cards", "brands": ["visa", "mc"]}]},
		"configuration": {"enableStoreDetails": true}
	}`), &setup))

	m, err := SessionModelFromSetup(&setup)
	require.NoError(t, err)
	assert.Equal(t, SessionModel{ID: "CS1", SessionData: "s1"}, m)
	require.NotNil(t, setup.PaymentMethods)
	assert.Equal(t, []string{"visa", "mc"}, setup.PaymentMethods.PaymentMethods[0].Brands)
	require.NotNil(t, setup.Configuration.EnableStoreDetails)
	assert.True(t, *setup.Configuration.EnableStoreDetails)
}

func TestOrderResponse(t *testing.T) {
	var nilOrder *OrderResponse
	assert.Nil(t, nilOrder.Request())
	assert.False(t, nilOrder.HasRemainingAmount())

	order := &OrderResponse{PspReference: "O1", OrderData: "d", RemainingAmount: &Amount{Currency: "EUR", Value: 1}}
	assert.Equal(t, &OrderRequest{PspReference: "O1", OrderData: "d"}, order.Request())
	assert.True(t, order.HasRemainingAmount())

	order.RemainingAmount = nil
	assert.False(t, order.HasRemainingAmount())
}
