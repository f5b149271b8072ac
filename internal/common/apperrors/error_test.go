package apperrors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestDerivedErrors(t *testing.T) {
	ErrCheckout := New("checkout error")
	assert.Equal(t, "checkout error", ErrCheckout.Error())
	assert.ErrorIs(t, ErrCheckout, ErrCheckout)

	ErrSession := ErrCheckout.New("session error")
	assert.Equal(t, "session error", ErrSession.Error())
	assert.ErrorIs(t, ErrSession, ErrCheckout)

	ErrBalance := ErrSession.New("not enough balance")
	assert.ErrorIs(t, ErrBalance, ErrSession)
	assert.ErrorIs(t, ErrBalance, ErrCheckout)
	assert.NotErrorIs(t, ErrSession, ErrBalance)
}

func TestWrappedCauses(t *testing.T) {
	ErrBackend := New("backend call failed")
	transport := errors.New("connection reset")
	decode := fmt.Errorf("unexpected end of JSON input")

	err := ErrBackend.Err(transport, decode)
	assert.Equal(t, "backend call failed", err.Error())
	assert.ErrorIs(t, err, ErrBackend)
	assert.ErrorIs(t, err, transport)
	assert.ErrorIs(t, err, decode)
	assert.Equal(t, "backend call failed; connection reset; unexpected end of JSON input", err.ErrorAll())

	err = ErrBackend.MsgErr("payments call failed", transport)
	assert.Equal(t, "payments call failed", err.Error())
	assert.ErrorIs(t, err, ErrBackend)
	assert.ErrorIs(t, err, transport)
	assert.Len(t, err.UnwrapAll(), 2)

	err = ErrBackend.Err(nil)
	assert.Len(t, err.UnwrapAll(), 1)
}

func TestStatusCodeAndPrefix(t *testing.T) {
	ErrBackend := New("backend call failed").SetStatusCode(http.StatusBadGateway)
	assert.Equal(t, http.StatusBadGateway, ErrBackend.StatusCode())

	derived := ErrBackend.Msg("setup failed")
	assert.Equal(t, http.StatusBadGateway, derived.StatusCode())

	overridden := derived.SetStatusCode(http.StatusUnprocessableEntity)
	assert.Equal(t, http.StatusUnprocessableEntity, overridden.StatusCode())
	assert.Equal(t, http.StatusBadGateway, derived.StatusCode())

	prefixed := derived.Prefix("payments")
	assert.Equal(t, "payments: setup failed", prefixed.Error())
	assert.Equal(t, "setup failed", derived.Error())
	assert.ErrorIs(t, prefixed, ErrBackend)
}

func TestIsNilTarget(t *testing.T) {
	err := New("x")
	assert.False(t, errors.Is(err, nil))
}

type statusErr struct{ code int }

func (e *statusErr) Error() string { return fmt.Sprintf("status %d", e.code) }

func TestAsReachesCauses(t *testing.T) {
	ErrBackend := New("backend call failed")
	err := ErrBackend.MsgErr("payments call failed", &statusErr{code: http.StatusBadGateway})

	var se *statusErr
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.code)

	var none *statusErr
	assert.False(t, errors.As(ErrBackend.Msg("no cause"), &none))
}
