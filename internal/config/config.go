package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Stripe   StripeConfig
	Frontend FrontendConfig
	Checkout CheckoutConfig
	Order    OrderConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level       string
	Development bool
}

type StripeConfig struct {
	APIKey        string
	WebhookSecret string
	Timeout       time.Duration
}

type FrontendConfig struct {
	URL string
}

type CheckoutConfig struct {
	PriceConvention     string
	UnmatchedItemPolicy string
}

type OrderConfig struct {
	StoreTimeout time.Duration
}

const (
	PriceConventionLegacy = "legacy"
	PriceConventionMinor  = "minor"

	UnmatchedItemDrop   = "drop"
	UnmatchedItemReject = "reject"
)

// Load reads configuration from the environment and, when CONFIG_FILE is
// set, from that file. Environment values win over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 7000)
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "checkout")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "food_ordering")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEVELOPMENT", false)
	v.SetDefault("STRIPE_TIMEOUT", "10s")
	v.SetDefault("CHECKOUT_PRICE_CONVENTION", PriceConventionLegacy)
	v.SetDefault("CHECKOUT_UNMATCHED_ITEM_POLICY", UnmatchedItemDrop)
	v.SetDefault("ORDER_STORE_TIMEOUT", "5s")

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"SERVER_READ_TIMEOUT",
		"SERVER_WRITE_TIMEOUT",
		"SERVER_SHUTDOWN_TIMEOUT",
		"DB_CONN_MAX_LIFETIME",
		"STRIPE_TIMEOUT",
		"ORDER_STORE_TIMEOUT",
	} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		durations[key] = d
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     durations["SERVER_READ_TIMEOUT"],
			WriteTimeout:    durations["SERVER_WRITE_TIMEOUT"],
			ShutdownTimeout: durations["SERVER_SHUTDOWN_TIMEOUT"],
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
		},
		Log: LogConfig{
			Level:       v.GetString("LOG_LEVEL"),
			Development: v.GetBool("LOG_DEVELOPMENT"),
		},
		Stripe: StripeConfig{
			APIKey:        v.GetString("STRIPE_API_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
			Timeout:       durations["STRIPE_TIMEOUT"],
		},
		Frontend: FrontendConfig{
			URL: strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		},
		Checkout: CheckoutConfig{
			PriceConvention:     strings.ToLower(v.GetString("CHECKOUT_PRICE_CONVENTION")),
			UnmatchedItemPolicy: strings.ToLower(v.GetString("CHECKOUT_UNMATCHED_ITEM_POLICY")),
		},
		Order: OrderConfig{
			StoreTimeout: durations["ORDER_STORE_TIMEOUT"],
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var missing []string
	if c.Stripe.APIKey == "" {
		missing = append(missing, "STRIPE_API_KEY")
	}
	if c.Stripe.WebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if c.Frontend.URL == "" {
		missing = append(missing, "FRONTEND_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.Checkout.PriceConvention {
	case PriceConventionLegacy, PriceConventionMinor:
	default:
		return fmt.Errorf("unknown CHECKOUT_PRICE_CONVENTION %q", c.Checkout.PriceConvention)
	}

	switch c.Checkout.UnmatchedItemPolicy {
	case UnmatchedItemDrop, UnmatchedItemReject:
	default:
		return fmt.Errorf("unknown CHECKOUT_UNMATCHED_ITEM_POLICY %q", c.Checkout.UnmatchedItemPolicy)
	}

	if c.Stripe.Timeout <= 0 {
		return fmt.Errorf("STRIPE_TIMEOUT must be positive")
	}
	if c.Order.StoreTimeout <= 0 {
		return fmt.Errorf("ORDER_STORE_TIMEOUT must be positive")
	}

	return nil
}
