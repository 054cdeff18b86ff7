package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return &cfg
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "logs.txt", cfg.Logger.LogFile)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 30*time.Second, cfg.Browser.LongWait)
	assert.Equal(t, 5*time.Second, cfg.Browser.ShortWait)
	assert.Equal(t, 100*time.Millisecond, cfg.Browser.PollInterval)

	assert.Equal(t, 3, cfg.Scrape.Attempts)
	assert.Equal(t, 10, cfg.Scrape.ClickAttempts)
	assert.Equal(t, time.Second, cfg.Scrape.ClickInterval)
	assert.Equal(t, 25, cfg.Scrape.CompositeScreenCap)
	assert.Equal(t, 30, cfg.Scrape.BasketFillCap)
	assert.Equal(t, "1NH", cfg.Scrape.PostcodeSuffix)
	assert.True(t, cfg.Scrape.SurveyDeliveryFees)

	assert.Equal(t, "Restaurant_Files", cfg.Output.Root)
	assert.Equal(t, "smtp.gmail.com", cfg.Mail.Host)
	assert.Equal(t, 587, cfg.Mail.Port)
}

func TestValidateAcceptsDefaultsWithRecipient(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Mail.To = "ops@example.com"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero attempts", func(c *Config) { c.Scrape.Attempts = 0 }},
		{"zero click attempts", func(c *Config) { c.Scrape.ClickAttempts = 0 }},
		{"zero composite cap", func(c *Config) { c.Scrape.CompositeScreenCap = 0 }},
		{"zero basket cap", func(c *Config) { c.Scrape.BasketFillCap = 0 }},
		{"zero long wait", func(c *Config) { c.Browser.LongWait = 0 }},
		{"empty output root", func(c *Config) { c.Output.Root = "" }},
		{"mail enabled without recipient", func(c *Config) { c.Mail.To = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			cfg.Mail.To = "ops@example.com"
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadPopulatesSingleton(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("scrape.attempts", 5)
	require.NoError(t, Load(v))
	assert.Equal(t, 5, Get().Scrape.Attempts)

	// Loading again is a no-op; the first load wins.
	v.Set("scrape.attempts", 9)
	require.NoError(t, Load(v))
	assert.Equal(t, 5, Get().Scrape.Attempts)

	// Set replaces the instance directly.
	cfg := defaultConfig(t)
	cfg.Scrape.Attempts = 7
	Set(cfg)
	assert.Equal(t, 7, Get().Scrape.Attempts)
}

func TestValidateIgnoresMailWhenDisabled(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Mail.Enabled = false
	cfg.Mail.To = ""
	assert.NoError(t, cfg.Validate())
}
