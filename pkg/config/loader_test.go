package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/config"
)

type defaultsConfig struct {
	Addr    string        `env:"TEST_CFG_ADDR" envDefault:":8080"`
	Retries int           `env:"TEST_CFG_RETRIES" envDefault:"3"`
	Timeout time.Duration `env:"TEST_CFG_TIMEOUT" envDefault:"5s"`
}

type singletonConfig struct {
	Value string `env:"TEST_CFG_SINGLETON" envDefault:"default"`
}

type requiredConfig struct {
	Secret string `env:"TEST_CFG_WEBHOOK_SECRET,required"`
}

type billingFileConfig struct {
	Provider  string   `env:"TEST_BILLING_PROVIDER"`
	ReturnURL string   `env:"TEST_BILLING_RETURN_URL"`
	Prices    []string `env:"TEST_BILLING_PRICES" envSeparator:","`
	Strict    bool     `env:"TEST_BILLING_STRICT"`
}

func TestLoad_DefaultValues(t *testing.T) {
	os.Unsetenv("TEST_CFG_ADDR")
	os.Unsetenv("TEST_CFG_RETRIES")
	os.Unsetenv("TEST_CFG_TIMEOUT")

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoad_Singleton(t *testing.T) {
	t.Setenv("TEST_CFG_SINGLETON", "first")

	var first singletonConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_CFG_SINGLETON", "second")

	var second singletonConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value, "cached copy must be returned")

	var reloaded singletonConfig
	require.NoError(t, config.ForceReloadConfig(&reloaded))
	assert.Equal(t, "second", reloaded.Value)
}

func TestLoad_MissingRequiredThenFixed(t *testing.T) {
	os.Unsetenv("TEST_CFG_WEBHOOK_SECRET")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	t.Setenv("TEST_CFG_WEBHOOK_SECRET", "whsec_test")

	var fixed requiredConfig
	require.NoError(t, config.Load(&fixed))
	assert.Equal(t, "whsec_test", fixed.Secret)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *defaultsConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	assert.ErrorIs(t, config.ForceReloadConfig(cfg), config.ErrNilPointer)
}

func TestMustLoad_Panics(t *testing.T) {
	type mustRequired struct {
		Key string `env:"TEST_CFG_MUST_REQUIRED,required"`
	}
	os.Unsetenv("TEST_CFG_MUST_REQUIRED")

	assert.Panics(t, func() {
		var cfg mustRequired
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv_Files(t *testing.T) {
	for _, k := range []string{"TEST_BILLING_PROVIDER", "TEST_BILLING_RETURN_URL", "TEST_BILLING_PRICES", "TEST_BILLING_STRICT"} {
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range []string{"TEST_BILLING_PROVIDER", "TEST_BILLING_RETURN_URL", "TEST_BILLING_PRICES", "TEST_BILLING_STRICT"} {
			os.Unsetenv(k)
		}
		config.ResetCache()
	})
	config.ResetCache()

	require.NoError(t, config.LoadEnv("testdata/.env.billing", "testdata/.env.override"))

	var cfg billingFileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "paddle", cfg.Provider, "later file wins")
	assert.Equal(t, "https://app.example.com/dashboard/subscription", cfg.ReturnURL)
	assert.Equal(t, []string{"price_basic", "price_standard", "price_premium"}, cfg.Prices)
	assert.True(t, cfg.Strict)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	err := config.LoadEnv("testdata/does_not_exist.env")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)

	assert.Panics(t, func() { config.MustLoadEnv("testdata/does_not_exist.env") })
	assert.NotPanics(t, func() { config.MustLoadEnv("testdata/.env.override") })
	os.Unsetenv("TEST_BILLING_PROVIDER")
}
