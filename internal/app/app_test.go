package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"papertrade/internal/config"
	"papertrade/internal/logging"
	"papertrade/internal/quotes"
	"papertrade/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWiresSQLiteAndStaticQuotes(t *testing.T) {
	cfg := config.Default()
	cfg.DBDSN = filepath.Join(t.TempDir(), "app.db")
	cfg.JWTSecret = "s"
	cfg.Quotes.Provider = types.QuoteProviderStatic
	cfg.Quotes.Static = map[string]quotes.Quote{"NFLX": {Price: decimal.NewFromInt(50)}}

	a, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer a.Close()

	q, err := a.Engine.Quote(context.Background(), "nflx")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.NewFromInt(50)))

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.DBDriver = "oracle"
	_, err := New(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}
