package httpx

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/adyen/checkout-sessions-go/internal/common/logtrace"
)

// SendJsonRsp writes msg as JSON with the given status code.
// Pre-marshaled string or []byte payloads are written as-is when valid.
func SendJsonRsp(ctx context.Context, w http.ResponseWriter, statusCode int, msg any) {
	var msgJson []byte
	switch m := msg.(type) {
	case string:
		if json.Valid([]byte(m)) {
			msgJson = []byte(m)
		}
	case []byte:
		if json.Valid(m) {
			msgJson = m
		}
	default:
		var err error
		msgJson, err = json.Marshal(msg)
		if err != nil {
			log.Ctx(ctx).Err(err).Msg("unable to marshal json")
			ErrApplicationError("Id: " + logtrace.RequestIdFromContext(ctx)).Send(w)
			return
		}
	}
	if msgJson == nil {
		ErrApplicationError("invalid json response").Send(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(msgJson)
}
