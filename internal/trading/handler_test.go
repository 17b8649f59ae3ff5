package trading

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"papertrade/internal/httputil"
	"papertrade/internal/model"
	"papertrade/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerBuyAcceptsNumericAndStringShares(t *testing.T) {
	f := newFixture(t)
	acc := storetest.NewAccount(t, f.store, "hank", model.StartingCash)
	f.board.set("NFLX", "50")
	h := NewHandler(f.engine)

	for _, body := range []string{`{"symbol":"nflx","shares":2}`, `{"symbol":"NFLX","shares":" 3 "}`} {
		rec := httptest.NewRecorder()
		h.Buy(rec, httptest.NewRequest(http.MethodPost, "/v1/buy", strings.NewReader(body)), acc.ID)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	var res Result
	rec := httptest.NewRecorder()
	h.Sell(rec, httptest.NewRequest(http.MethodPost, "/v1/sell", strings.NewReader(`{"symbol":"NFLX","shares":5}`)), acc.ID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Cash.Equal(model.StartingCash))
	assert.Equal(t, int64(-5), res.Record.Shares)
}

func TestHandlerErrors(t *testing.T) {
	f := newFixture(t)
	acc := storetest.NewAccount(t, f.store, "ivy", dec("10"))
	f.board.set("NFLX", "50")
	h := NewHandler(f.engine)

	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"fractional shares", `{"symbol":"NFLX","shares":1.5}`, http.StatusBadRequest, "invalid_quantity"},
		{"text shares", `{"symbol":"NFLX","shares":"lots"}`, http.StatusBadRequest, "invalid_quantity"},
		{"missing shares", `{"symbol":"NFLX"}`, http.StatusBadRequest, "invalid_quantity"},
		{"missing symbol", `{"shares":1}`, http.StatusBadRequest, "missing_symbol"},
		{"unknown symbol", `{"symbol":"ZZZZ","shares":1}`, http.StatusBadRequest, "unknown_symbol"},
		{"cannot afford", `{"symbol":"NFLX","shares":1}`, http.StatusBadRequest, "insufficient_funds"},
		{"unknown field", `{"symbol":"NFLX","shares":1,"x":1}`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Buy(rec, httptest.NewRequest(http.MethodPost, "/v1/buy", strings.NewReader(tt.body)), acc.ID)
			assert.Equal(t, tt.status, rec.Code)
			var body httputil.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHandlerQuote(t *testing.T) {
	f := newFixture(t)
	f.board.set("AAPL", "189.5")
	h := NewHandler(f.engine)

	rec := httptest.NewRecorder()
	h.Quote(rec, httptest.NewRequest(http.MethodGet, "/v1/quote?symbol=aapl", nil), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"symbol":"AAPL"`)

	rec = httptest.NewRecorder()
	h.Quote(rec, httptest.NewRequest(http.MethodGet, "/v1/quote?symbol=nope", nil), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
