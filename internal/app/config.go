package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/salesdesk/order-engine/internal/domain/pricing"
)

// Config holds the complete application configuration, loadable from
// environment variables (SALESDESK_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (SALESDESK_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	CEPBaseURL   string `default:"https://viacep.com.br" usage:"Base URL of the postal code lookup service" flag:"cep-base-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (SALESDESK_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Shipping     ShippingConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// ShippingConfig holds the per-method shipping fee schedule as decimal
// strings. Parsed once at startup; a malformed value fails boot.
type ShippingConfig struct {
	StandardFee string `default:"25"  usage:"Standard shipping fee" flag:"shipping-standard-fee"`
	ExpressFee  string `default:"45"  usage:"Express shipping fee" flag:"shipping-express-fee"`
	CarrierFee  string `default:"80"  usage:"Carrier shipping fee" flag:"shipping-carrier-fee"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SALESDESK",
		Files:     []string{"config.yaml", "/etc/salesdesk/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SALESDESK_DATABASE_URL or DATABASE_URL")
	}
	if _, err := cfg.Shipping.feeTable(); err != nil {
		return nil, errors.Wrap(err, "shipping fees")
	}

	return &cfg, nil
}

// feeTable parses the configured fee strings into the calculator's fee
// schedule.
func (s ShippingConfig) feeTable() (pricing.FeeTable, error) {
	fees := map[pricing.ShippingMethod]string{
		pricing.ShippingStandard: s.StandardFee,
		pricing.ShippingExpress:  s.ExpressFee,
		pricing.ShippingCarrier:  s.CarrierFee,
	}
	out := make(pricing.FeeTable, len(fees))
	for method, raw := range fees {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s fee %q", method, raw)
		}
		if d.IsNegative() {
			return nil, errors.Errorf("%s fee must not be negative: %s", method, raw)
		}
		out[method] = d
	}
	return out, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's SALESDESK_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
