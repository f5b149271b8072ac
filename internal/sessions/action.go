package sessions

import (
	"encoding/json"

	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
)

// Action is a backend instruction that needs further shopper interaction before the
// payment can complete. Raw keeps the payload as received so it can be handed to the
// UI layer untouched.
type Action struct {
	Type              string         `mapstructure:"type"`
	PaymentMethodType string         `mapstructure:"paymentMethodType"`
	PaymentData       string         `mapstructure:"paymentData"`
	URL               string         `mapstructure:"url"`
	Method            string         `mapstructure:"method"`
	Token             string         `mapstructure:"token"`
	QRCodeData        string         `mapstructure:"qrCodeData"`
	Data              map[string]any `mapstructure:"data"`
	Raw               []byte         `mapstructure:"-"`
}

// ParseAction decodes an action object. It returns nil for empty input or JSON null.
func ParseAction(raw []byte) (*Action, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidAction.Msg("action is not valid json")
	}
	res := gjson.ParseBytes(raw)
	if res.Type == gjson.Null {
		return nil, nil
	}
	if !res.IsObject() {
		return nil, ErrInvalidAction.Msg("action must be an object")
	}
	if res.Get("type").String() == "" {
		return nil, ErrInvalidAction.Msg("action type is missing")
	}

	var action Action
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &action,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, ErrInvalidAction.Err(err)
	}
	if err := decoder.Decode(res.Value()); err != nil {
		return nil, ErrInvalidAction.Err(err)
	}
	action.Raw = append([]byte(nil), raw...)
	return &action, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Action) UnmarshalJSON(b []byte) error {
	parsed, err := ParseAction(b)
	if err != nil {
		return err
	}
	if parsed == nil {
		*a = Action{}
		return nil
	}
	*a = *parsed
	return nil
}

// MarshalJSON implements json.Marshaler. The received payload is returned as-is.
func (a Action) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	m := map[string]any{}
	for k, v := range map[string]string{
		"type":              a.Type,
		"paymentMethodType": a.PaymentMethodType,
		"paymentData":       a.PaymentData,
		"url":               a.URL,
		"method":            a.Method,
		"token":             a.Token,
		"qrCodeData":        a.QRCodeData,
	} {
		if v != "" {
			m[k] = v
		}
	}
	if a.Data != nil {
		m["data"] = a.Data
	}
	return json.Marshal(m)
}
