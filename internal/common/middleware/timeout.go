package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adyen/checkout-sessions-go/internal/common/httpx"
)

// SetTimeout bounds request handling by timeout. Handlers observe the deadline
// through the request context; a handler that has not started its response when
// the deadline passes is answered with 408.
func SetTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			rw := &lockedWriter{rw: httpx.NewResponseWriter(w)}
			r = r.WithContext(ctx)

			done := make(chan struct{})
			go func() {
				defer func() {
					if p := recover(); p != nil {
						log.Ctx(ctx).Error().Msgf("panic in handler: %v", p)
					}
					close(done)
				}()
				next.ServeHTTP(rw, r)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if rw.claim() {
					httpx.ErrRequestTimeout().Send(rw.rw)
				}
				log.Ctx(ctx).Error().Msg("request timed out")
			}
		})
	}
}
