package httpserver

import (
	"log/slog"
	"net/http"

	"papertrade/internal/auth"
	"papertrade/internal/health"
	"papertrade/internal/httputil"
	"papertrade/internal/ledger"
	"papertrade/internal/trading"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	AuthHandler    *auth.Handler
	TradingHandler *trading.Handler
	LedgerHandler  *ledger.Handler
	HealthHandler  *health.Handler
	Tokens         TokenParser
	WSHandler      http.Handler
	RateLimiter    *RateLimiter
	Logger         *slog.Logger
}

type accountHandler func(w http.ResponseWriter, r *http.Request, accountID string)

func withAccountID(h accountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := AccountID(r)
		if !ok {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
			return
		}
		h(w, r, accountID)
	}
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	if d.Logger != nil {
		r.Use(RequestLogger(d.Logger))
	}
	r.Use(SecurityHeaders)
	r.Use(NoCache)
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Middleware)
	}

	r.Get("/health", d.HealthHandler.Get)
	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.AuthHandler.Register)
			r.Post("/login", d.AuthHandler.Login)
		})
		if d.WSHandler != nil {
			r.Handle("/ws", d.WSHandler)
		}

		r.Group(func(r chi.Router) {
			r.Use(WithAuth(d.Tokens))
			r.Get("/me", withAccountID(d.AuthHandler.Me))
			r.Get("/quote", withAccountID(d.TradingHandler.Quote))
			r.Post("/buy", withAccountID(d.TradingHandler.Buy))
			r.Post("/sell", withAccountID(d.TradingHandler.Sell))
			r.Get("/portfolio", withAccountID(d.LedgerHandler.Portfolio))
			r.Get("/history", withAccountID(d.LedgerHandler.History))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{Error: "method not allowed"})
	})
	return r
}
