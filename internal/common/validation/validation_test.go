package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Currency  string `validate:"required,currency"`
	ClientKey string `validate:"clientKey"`
	Driver    string `validate:"oneof=memory file postgres"`
	Reference string `validate:"omitempty,noSpaces"`
	Value     int64  `validate:"gt=0"`
}

func TestStruct(t *testing.T) {
	ok := sample{Currency: "EUR", ClientKey: "test_ABC123", Driver: "file", Reference: "order-1", Value: 1}
	assert.NoError(t, Struct(ok))

	noKey := ok
	noKey.ClientKey = ""
	assert.NoError(t, Struct(noKey))

	tests := []struct {
		name    string
		mutate  func(s *sample)
		wantErr string
	}{
		{"missing currency", func(s *sample) { s.Currency = "" }, "Currency is required"},
		{"bad currency", func(s *sample) { s.Currency = "euro" }, "Currency must be a three letter currency code"},
		{"bad client key", func(s *sample) { s.ClientKey = "abc" }, "ClientKey must look like test_XXX or live_XXX"},
		{"bad driver", func(s *sample) { s.Driver = "redis" }, "Driver must be one of [memory file postgres]"},
		{"spaces", func(s *sample) { s.Reference = "a b" }, "Reference failed noSpaces validation"},
		{"zero value", func(s *sample) { s.Value = 0 }, "Value must be greater than 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ok
			tt.mutate(&s)
			assert.EqualError(t, Struct(s), tt.wantErr)
		})
	}
}

type tagged struct {
	SessionData string `json:"sessionData" validate:"required"`
	Port        int    `toml:"port" validate:"gt=0"`
	Order       *struct {
		PspReference string `json:"pspReference" validate:"required"`
	} `json:"order" validate:"required"`
}

func TestStructUsesTagNames(t *testing.T) {
	err := Struct(tagged{Port: 1, Order: &struct {
		PspReference string `json:"pspReference" validate:"required"`
	}{}})
	assert.EqualError(t, err, "sessionData is required; order.pspReference is required")

	err = Struct(tagged{SessionData: "s1"})
	assert.EqualError(t, err, "port must be greater than 0; order is required")
}
