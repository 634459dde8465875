package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentConfigValidate(t *testing.T) {
	t.Run("local adapters need no keys", func(t *testing.T) {
		cfg := &PaymentConfig{Providers: map[string]ProviderConfig{
			"mock":    {Environment: "sandbox"},
			"offline": {},
		}}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("placeholder secret key is rejected", func(t *testing.T) {
		cfg := &PaymentConfig{Providers: map[string]ProviderConfig{
			"stripe": {Environment: "sandbox", SecretKey: "changeme"},
		}}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stripe")
		assert.Contains(t, err.Error(), "placeholder")
	})

	t.Run("missing secret key is rejected", func(t *testing.T) {
		cfg := &PaymentConfig{Providers: map[string]ProviderConfig{
			"razorpay": {Environment: "production"},
		}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown environment is rejected", func(t *testing.T) {
		cfg := &PaymentConfig{Providers: map[string]ProviderConfig{
			"stripe": {Environment: "staging", SecretKey: "sk_live_real"},
		}}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "environment")
	})

	t.Run("webhooks enabled requires webhook secret", func(t *testing.T) {
		cfg := &PaymentConfig{Providers: map[string]ProviderConfig{
			"stripe": {
				Environment: "sandbox",
				SecretKey:   "sk_test_real",
				Features:    ProviderFeatures{Webhooks: true},
			},
		}}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "webhook secret")
	})

	t.Run("complete config passes", func(t *testing.T) {
		cfg := &PaymentConfig{Providers: map[string]ProviderConfig{
			"stripe": {
				Environment:   "sandbox",
				SecretKey:     "sk_test_real",
				WebhookSecret: "whsec_real",
				Features:      ProviderFeatures{Webhooks: true, Refunds: true},
			},
		}}
		assert.NoError(t, cfg.Validate())
	})
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &DatabaseConfig{
		Host: "db.internal", Port: 5432,
		User: "svc", Password: "pw", Database: "gharseva", SSLMode: "require",
	}
	assert.Equal(t,
		"host=db.internal port=5432 user=svc password=pw dbname=gharseva sslmode=require",
		cfg.DSN())
}
