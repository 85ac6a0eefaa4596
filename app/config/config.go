package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultPort            = "8080"
	defaultProviderModel   = "gpt-4o-mini"
	defaultProviderTimeout = 30 * time.Second
)

type Config struct {
	Port     string
	BaseURL  string // public URL of the web app, used for checkout redirects
	Logs     LogConfig
	DB       PostgresConfig
	Stripe   StripeConfig
	Identity IdentityConfig
	Provider ProviderConfig
	QueueURL string
}

type LogConfig struct {
	Style string
	Level string
}

type PostgresConfig struct {
	Username string
	Password string
	URL      string
	Port     string
	Name     string
	SSLMode  string
	DSN      string // DATABASE_URL wins over the discrete fields when set
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceIDBasic  string
	PriceIDPro    string
}

type IdentityConfig struct {
	WebhookSecret     string // svix signing secret, whsec_...
	Issuer            string
	Audience          string
	JWKSURL           string
	AuthorizedParties []string // frontend origins allowed in the azp claim
}

type ProviderConfig struct {
	APIURL  string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func LoadConfig() (*Config, error) {
	timeout := defaultProviderTimeout
	if v := strings.TrimSpace(os.Getenv("PROVIDER_TIMEOUT_SECONDS")); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT_SECONDS %q", v)
		}
		timeout = time.Duration(secs) * time.Second
	}

	cfg := &Config{
		Port:     envOr("PORT", defaultPort),
		BaseURL:  strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		QueueURL: os.Getenv("QUEUE_URL"),
		Logs: LogConfig{
			Style: os.Getenv("LOG_STYLE"),
			Level: os.Getenv("LOG_LEVEL"),
		},
		DB: PostgresConfig{
			Username: os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PWD"),
			URL:      os.Getenv("POSTGRES_URL"),
			Port:     envOr("POSTGRES_PORT", "5432"),
			Name:     os.Getenv("POSTGRES_DB"),
			SSLMode:  envOr("POSTGRES_SSLMODE", "require"),
			DSN:      os.Getenv("DATABASE_URL"),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PriceIDBasic:  os.Getenv("STRIPE_PRICE_ID_BASIC"),
			PriceIDPro:    os.Getenv("STRIPE_PRICE_ID_PRO"),
		},
		Identity: IdentityConfig{
			WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
			Issuer:            strings.TrimSpace(os.Getenv("CLERK_ISSUER")),
			Audience:          strings.TrimSpace(os.Getenv("CLERK_AUDIENCE")),
			JWKSURL:           strings.TrimSpace(os.Getenv("CLERK_JWKS_URL")),
			AuthorizedParties: splitList(os.Getenv("CLERK_AUTHORIZED_PARTIES")),
		},
		Provider: ProviderConfig{
			APIURL:  strings.TrimRight(os.Getenv("VISIONARY_API_URL"), "/"),
			APIKey:  os.Getenv("VISIONARY_API_KEY"),
			Model:   envOr("VISIONARY_MODEL", defaultProviderModel),
			Timeout: timeout,
		},
	}

	return cfg, nil
}

// Validate reports the settings the HTTP server cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.DB.DSN == "" && c.DB.URL == "" {
		missing = append(missing, "DATABASE_URL or POSTGRES_URL")
	}
	if c.Stripe.SecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.Stripe.WebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if c.Identity.WebhookSecret == "" {
		missing = append(missing, "WEBHOOK_SECRET")
	}
	if c.Provider.APIURL == "" {
		missing = append(missing, "VISIONARY_API_URL")
	}
	if c.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}
	if len(missing) > 0 {
		return errors.New("missing required config: " + strings.Join(missing, ", "))
	}
	return nil
}

// PostgresDSN builds the connection string for lib/pq.
func (c PostgresConfig) PostgresDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Username,
		c.Password,
		c.URL,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
