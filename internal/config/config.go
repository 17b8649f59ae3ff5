package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"papertrade/internal/quotes"
	"papertrade/internal/types"

	"gopkg.in/yaml.v3"
)

// FileEnv names the optional YAML file read before the environment.
const FileEnv = "PAPERTRADE_CONFIG"

type Config struct {
	HTTPAddr        string            `yaml:"http_addr"`
	DBDriver        types.StoreDriver `yaml:"db_driver"`
	DBDSN           string            `yaml:"db_dsn"`
	JWTIssuer       string            `yaml:"jwt_issuer"`
	JWTSecret       string            `yaml:"jwt_secret"`
	JWTTTL          time.Duration     `yaml:"jwt_ttl"`
	WebSocketOrigin string            `yaml:"ws_origin"`
	Quotes          QuoteConfig       `yaml:"quotes"`
	Log             LogConfig         `yaml:"log"`
}

type QuoteConfig struct {
	Provider   types.QuoteProviderKind `yaml:"provider"`
	URL        string                  `yaml:"url"`
	APIKey     string                  `yaml:"api_key"`
	Timeout    time.Duration           `yaml:"timeout"`
	SymbolPath string                  `yaml:"symbol_path"`
	NamePath   string                  `yaml:"name_path"`
	PricePath  string                  `yaml:"price_path"`
	// Static is the table served by the static provider, keyed by symbol.
	Static map[string]quotes.Quote `yaml:"static"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		DBDriver:        types.StoreDriverSQLite,
		JWTIssuer:       "papertrade",
		JWTTTL:          24 * time.Hour,
		WebSocketOrigin: "*",
		Quotes: QuoteConfig{
			Provider:   types.QuoteProviderHTTP,
			URL:        quotes.DefaultURL,
			Timeout:    5 * time.Second,
			SymbolPath: quotes.DefaultSymbolPath,
			NamePath:   quotes.DefaultNamePath,
			PricePath:  quotes.DefaultPricePath,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load starts from Default, applies the YAML file named by PAPERTRADE_CONFIG
// if set, then the environment.
func Load() (Config, error) {
	c := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := c.loadFile(path); err != nil {
			return c, err
		}
	}
	if err := c.applyEnv(); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.HTTPAddr, "HTTP_ADDR")
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.DBDriver = types.StoreDriver(strings.ToLower(strings.TrimSpace(v)))
	}
	setString(&c.DBDSN, "DB_DSN")
	setString(&c.JWTIssuer, "JWT_ISSUER")
	setString(&c.JWTSecret, "JWT_SECRET")
	if err := setDuration(&c.JWTTTL, "JWT_TTL"); err != nil {
		return err
	}
	setString(&c.WebSocketOrigin, "WS_ORIGIN")
	if v := os.Getenv("QUOTE_PROVIDER"); v != "" {
		c.Quotes.Provider = types.QuoteProviderKind(strings.ToLower(strings.TrimSpace(v)))
	}
	setString(&c.Quotes.URL, "QUOTE_URL")
	setString(&c.Quotes.APIKey, "API_KEY")
	if err := setDuration(&c.Quotes.Timeout, "QUOTE_TIMEOUT"); err != nil {
		return err
	}
	setString(&c.Quotes.SymbolPath, "QUOTE_SYMBOL_PATH")
	setString(&c.Quotes.NamePath, "QUOTE_NAME_PATH")
	setString(&c.Quotes.PricePath, "QUOTE_PRICE_PATH")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	return nil
}

// Validate reports every missing required key at once, then the first
// invalid value.
func (c Config) Validate() error {
	var missing []string
	if c.DBDSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Quotes.Provider == types.QuoteProviderHTTP && c.Quotes.APIKey == "" {
		missing = append(missing, "API_KEY")
	}
	if len(missing) > 0 {
		return errors.New("missing required env: " + strings.Join(missing, ","))
	}
	switch c.DBDriver {
	case types.StoreDriverPostgres, types.StoreDriverSQLite:
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: use postgres or sqlite", c.DBDriver)
	}
	switch c.Quotes.Provider {
	case types.QuoteProviderHTTP, types.QuoteProviderStatic, types.QuoteProviderDisabled:
	default:
		return fmt.Errorf("invalid QUOTE_PROVIDER %q: use http, static or disabled", c.Quotes.Provider)
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.Quotes.Timeout <= 0 {
		return errors.New("QUOTE_TIMEOUT must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

// NewProvider builds the quote provider selected by Provider.
func (q QuoteConfig) NewProvider() quotes.Provider {
	switch q.Provider {
	case types.QuoteProviderStatic:
		return quotes.NewStaticProvider(q.Static)
	case types.QuoteProviderHTTP:
		return quotes.NewHTTPProvider(quotes.HTTPConfig{
			URL:        q.URL,
			Token:      q.APIKey,
			Timeout:    q.Timeout,
			SymbolPath: q.SymbolPath,
			NamePath:   q.NamePath,
			PricePath:  q.PricePath,
		})
	default:
		return quotes.NewDisabledProvider()
	}
}
