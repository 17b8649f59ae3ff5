package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

const (
	DefaultURL        = "https://cloud.iexapis.com/stable/stock/{symbol}/quote?token={token}"
	DefaultSymbolPath = "$.symbol"
	DefaultNamePath   = "$.companyName"
	DefaultPricePath  = "$.latestPrice"
)

type HTTPConfig struct {
	URL        string
	Token      string
	Timeout    time.Duration
	SymbolPath string
	NamePath   string
	PricePath  string
}

// HTTPProvider fetches one JSON document per lookup and extracts the quote
// fields with JSONPath expressions.
type HTTPProvider struct {
	client *http.Client
	cfg    HTTPConfig
}

func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.SymbolPath == "" {
		cfg.SymbolPath = DefaultSymbolPath
	}
	if cfg.NamePath == "" {
		cfg.NamePath = DefaultNamePath
	}
	if cfg.PricePath == "" {
		cfg.PricePath = DefaultPricePath
	}
	return &HTTPProvider{client: &http.Client{Timeout: cfg.Timeout}, cfg: cfg}
}

func (p *HTTPProvider) endpoint(symbol string) string {
	out := strings.ReplaceAll(p.cfg.URL, "{symbol}", url.PathEscape(symbol))
	return strings.ReplaceAll(out, "{token}", url.QueryEscape(p.cfg.Token))
}

func (p *HTTPProvider) Lookup(ctx context.Context, symbol string) (Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return Quote{}, fmt.Errorf("%w: empty symbol", ErrNotFound)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint(symbol), nil)
	if err != nil {
		return Quote{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("quote request %s: %w", symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Quote{}, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Quote{}, fmt.Errorf("quote request %s: unexpected status %s", symbol, resp.Status)
	}
	var doc any
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&doc); err != nil {
		return Quote{}, fmt.Errorf("%w: decode %s: %v", ErrNotFound, symbol, err)
	}
	return p.extract(doc)
}

func (p *HTTPProvider) extract(doc any) (Quote, error) {
	var q Quote
	sym, err := lookupPath(p.cfg.SymbolPath, doc)
	if err != nil {
		return q, err
	}
	name, err := lookupPath(p.cfg.NamePath, doc)
	if err != nil {
		return q, err
	}
	rawPrice, err := lookupPath(p.cfg.PricePath, doc)
	if err != nil {
		return q, err
	}
	q.Symbol = NormalizeSymbol(fmt.Sprint(sym))
	q.Name = strings.TrimSpace(fmt.Sprint(name))
	switch v := rawPrice.(type) {
	case float64:
		q.Price = decimal.NewFromFloat(v)
	case string:
		q.Price, err = decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return Quote{}, fmt.Errorf("%w: price %q", ErrNotFound, v)
		}
	default:
		return Quote{}, fmt.Errorf("%w: price is %T", ErrNotFound, rawPrice)
	}
	if err := q.Validate(); err != nil {
		return Quote{}, err
	}
	return q, nil
}

// lookupPath returns the first value matched by path. jsonpath may answer
// with a single value or a list holding it.
func lookupPath(path string, doc any) (any, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("%w: %s matched nothing", ErrNotFound, path)
		}
		v = list[0]
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %s is null", ErrNotFound, path)
	}
	return v, nil
}
