// Package sandbox is a deterministic in-process implementation of the Checkout
// sessions API. It rotates session data on every call and models refusals, redirect
// actions, gift card balances and partial-payment orders, so the sessions client can
// be exercised end to end without a real payment backend.
package sandbox

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/adyen/checkout-sessions-go/internal/common/httpclient"
	"github.com/adyen/checkout-sessions-go/internal/common/httpx"
	"github.com/adyen/checkout-sessions-go/internal/common/middleware"
)

// Options tune the sandbox behavior.
type Options struct {
	ClientKey        string        // required on every call when set
	GiftCardBalance  int64         // initial balance of unseen gift cards, minor units
	TransactionLimit int64         // reported transaction limit for gift cards, 0 for none
	SessionTTL       time.Duration // lifetime of a created session
	RequestTimeout   time.Duration // 0 disables the timeout middleware
	HandleCORS       bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		GiftCardBalance: 5000,
		SessionTTL:      time.Hour,
	}
}

// Server serves the sessions API.
type Server struct {
	Router *chi.Mux
	opts   Options
	store  *store
	now    func() time.Time
}

// CreateNewServer creates a sandbox server with opts.
func CreateNewServer(opts Options) (*Server, error) {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultOptions().SessionTTL
	}
	s := &Server{
		Router: chi.NewRouter(),
		opts:   opts,
		store:  newStore(),
		now:    time.Now,
	}
	return s, nil
}

// MountHandlers sets up middleware and routes.
func (s *Server) MountHandlers() {
	s.Router.Use(middleware.RequestLogger)
	s.Router.Use(middleware.PanicHandler)
	if s.opts.RequestTimeout > 0 {
		s.Router.Use(middleware.SetTimeout(s.opts.RequestTimeout))
	}
	if s.opts.HandleCORS {
		s.Router.Use(s.HandleCORS)
	}
	s.mountResourceHandlers(s.Router)
}

type responseHandlerParam struct {
	Method  string
	Path    string
	Handler httpx.RequestHandler
}

func (s *Server) sessionHandlers() []responseHandlerParam {
	return []responseHandlerParam{
		{Method: http.MethodPost, Path: "/setup", Handler: s.setup},
		{Method: http.MethodPost, Path: "/payments", Handler: s.payments},
		{Method: http.MethodPost, Path: "/paymentDetails", Handler: s.paymentDetails},
		{Method: http.MethodPost, Path: "/paymentMethodBalance", Handler: s.paymentMethodBalance},
		{Method: http.MethodPost, Path: "/orders", Handler: s.createOrder},
		{Method: http.MethodPost, Path: "/orders/cancel", Handler: s.cancelOrder},
	}
}

func (s *Server) mountResourceHandlers(r chi.Router) {
	r.Route("/v1/sessions", func(r chi.Router) {
		r.Use(s.ClientKeyAuthenticator)
		r.Method(http.MethodPost, "/", httpx.WrapHttpRsp(s.createSession))
		r.Route("/{id}", func(r chi.Router) {
			for _, h := range s.sessionHandlers() {
				r.Method(h.Method, h.Path, httpx.WrapHttpRsp(h.Handler))
			}
		})
	})
	r.Get("/version", s.getVersion)
	r.Get("/ready", s.getReadiness)
}

// ClientKeyAuthenticator rejects requests without the configured client key.
func (s *Server) ClientKeyAuthenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.ClientKey != "" {
			key := r.URL.Query().Get(httpclient.ClientKeyParam)
			if key == "" {
				httpx.ErrMissingKeyInRequest().Send(w)
				return
			}
			if key != s.opts.ClientKey {
				httpx.ErrUnAuthorized("invalid client key").Send(w)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, &versionResponse{
		ServerVersion: Version,
		ApiVersion:    ApiVersion,
	})
}

func (s *Server) getReadiness(w http.ResponseWriter, r *http.Request) {
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// HandleCORS allows browser integrations to call the sandbox directly.
func (s *Server) HandleCORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", httpclient.IdempotencyKeyHeader, middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})(next)
}
