// Package app wires configuration into services and handlers. It is shared
// by the API server and the CLI.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"papertrade/internal/auth"
	"papertrade/internal/config"
	"papertrade/internal/db"
	"papertrade/internal/events"
	"papertrade/internal/health"
	"papertrade/internal/httpserver"
	"papertrade/internal/ledger"
	"papertrade/internal/store"
	"papertrade/internal/trading"
)

// Rate limit for the API: 10 requests/sec, burst 30.
const (
	apiRate  = 10
	apiBurst = 30
)

type App struct {
	Config  config.Config
	Log     *slog.Logger
	Store   store.Store
	Bus     *events.Bus
	Auth    *auth.Service
	Engine  *trading.Engine
	Ledger  *ledger.Service
	started time.Time
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	st, err := db.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	bus := events.NewBus()
	return &App{
		Config:  cfg,
		Log:     log,
		Store:   st,
		Bus:     bus,
		Auth:    auth.NewService(st, cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL),
		Engine:  trading.NewEngine(st, cfg.Quotes.NewProvider(), bus, log),
		Ledger:  ledger.NewService(st),
		started: time.Now(),
	}, nil
}

func (a *App) Router() http.Handler {
	return httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandler:    auth.NewHandler(a.Auth),
		TradingHandler: trading.NewHandler(a.Engine),
		LedgerHandler:  ledger.NewHandler(a.Ledger, a.Log),
		HealthHandler:  health.NewHandler(a.Store, a.started, string(a.Config.DBDriver), string(a.Config.Quotes.Provider)),
		Tokens:         a.Auth,
		WSHandler:      httpserver.NewWSHandler(a.Bus, a.Auth, a.Config.WebSocketOrigin, a.Log),
		RateLimiter:    httpserver.NewRateLimiter(apiRate, apiBurst),
		Logger:         a.Log,
	})
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.HTTPAddr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		a.Log.Info("server listening", "addr", a.Config.HTTPAddr, "driver", a.Config.DBDriver, "quotes", a.Config.Quotes.Provider)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() error {
	return a.Store.Close()
}
