package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("STRIPE_API_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
	t.Setenv("FRONTEND_URL", "http://localhost:5173/")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10*time.Second, cfg.Stripe.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Order.StoreTimeout)
	assert.Equal(t, "http://localhost:5173", cfg.Frontend.URL)
	assert.Equal(t, PriceConventionLegacy, cfg.Checkout.PriceConvention)
	assert.Equal(t, UnmatchedItemDrop, cfg.Checkout.UnmatchedItemPolicy)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STRIPE_TIMEOUT", "3s")
	t.Setenv("CHECKOUT_PRICE_CONVENTION", "MINOR")
	t.Setenv("CHECKOUT_UNMATCHED_ITEM_POLICY", "reject")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Stripe.Timeout)
	assert.Equal(t, PriceConventionMinor, cfg.Checkout.PriceConvention)
	assert.Equal(t, UnmatchedItemReject, cfg.Checkout.UnmatchedItemPolicy)
}

func TestLoad_ConfigFile(t *testing.T) {
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL: debug\nDB_NAME: orders_file\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "orders_file", cfg.Database.Name)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("STRIPE_API_KEY", "")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	t.Setenv("FRONTEND_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_API_KEY")
	assert.Contains(t, err.Error(), "STRIPE_WEBHOOK_SECRET")
	assert.Contains(t, err.Error(), "FRONTEND_URL")
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STRIPE_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_TIMEOUT")
}

func TestValidate_UnknownPolicies(t *testing.T) {
	base := Config{
		Stripe:   StripeConfig{APIKey: "k", WebhookSecret: "s", Timeout: time.Second},
		Frontend: FrontendConfig{URL: "http://x"},
		Checkout: CheckoutConfig{PriceConvention: PriceConventionLegacy, UnmatchedItemPolicy: UnmatchedItemDrop},
		Order:    OrderConfig{StoreTimeout: time.Second},
	}
	require.NoError(t, base.Validate())

	badConvention := base
	badConvention.Checkout.PriceConvention = "cents?"
	assert.Error(t, badConvention.Validate())

	badPolicy := base
	badPolicy.Checkout.UnmatchedItemPolicy = "ignore"
	assert.Error(t, badPolicy.Validate())

	badTimeout := base
	badTimeout.Stripe.Timeout = 0
	assert.Error(t, badTimeout.Validate())
}
