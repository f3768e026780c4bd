// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "qasweep", cfg.Logger.ServiceName)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 10*time.Second, cfg.Sweep.ElementTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Sweep.PageBudget)
	assert.Equal(t, 1500*time.Millisecond, cfg.Browser.QuietPeriod)
	assert.Equal(t, []string{"markdown", "html"}, cfg.Report.Formats)
	assert.NotEmpty(t, cfg.Login.UsernameSelectors)
	assert.NotEmpty(t, cfg.Login.LoginPaths)
	assert.True(t, cfg.History.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("sweep.element_timeout", "3s")
	v.Set("sweep.max_elements", 40)
	v.Set("browser.concurrency", 6)
	v.Set("report.formats", []string{"json", "junit"})

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Sweep.ElementTimeout)
	assert.Equal(t, 40, cfg.Sweep.MaxElements)
	assert.Equal(t, 6, cfg.Browser.Concurrency)
	assert.Equal(t, []string{"json", "junit"}, cfg.Report.Formats)
}

func TestCredentialsComeFromEnvironment(t *testing.T) {
	t.Setenv("QASWEEP_LOGIN_USERNAME", "qa-bot")
	t.Setenv("QASWEEP_LOGIN_PASSWORD", "hunter2")

	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "qa-bot", cfg.Login.Username)
	assert.Equal(t, "hunter2", cfg.Login.Password)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero browser concurrency", func(c *Config) { c.Browser.Concurrency = 0 }},
		{"negative element timeout", func(c *Config) { c.Sweep.ElementTimeout = -time.Second }},
		{"zero page budget", func(c *Config) { c.Sweep.PageBudget = 0 }},
		{"negative max elements", func(c *Config) { c.Sweep.MaxElements = -1 }},
		{"zero quiet period", func(c *Config) { c.Browser.QuietPeriod = 0 }},
		{"unknown report format", func(c *Config) { c.Report.Formats = []string{"pdf"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestHistoryExpandedPath(t *testing.T) {
	h := HistoryConfig{Path: "~/.qasweep/history.db"}
	path, err := h.ExpandedPath()
	require.NoError(t, err)
	assert.NotContains(t, path, "~")

	plain := HistoryConfig{Path: "/var/lib/qasweep/history.db"}
	path, err = plain.ExpandedPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/qasweep/history.db", path)
}
