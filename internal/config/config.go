// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Sweep   SweepConfig   `mapstructure:"sweep" yaml:"sweep"`
	Crawler CrawlerConfig `mapstructure:"crawler" yaml:"crawler"`
	Login   LoginConfig   `mapstructure:"login" yaml:"login"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls the Chrome process and page sessions.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// QuietPeriod is how long the network must stay silent before the page
	// counts as settled.
	QuietPeriod time.Duration `mapstructure:"quiet_period" yaml:"quiet_period"`
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
}

// SweepConfig bounds the element sweep on each page.
type SweepConfig struct {
	ElementTimeout    time.Duration `mapstructure:"element_timeout" yaml:"element_timeout"`
	PageBudget        time.Duration `mapstructure:"page_budget" yaml:"page_budget"`
	MaxElements       int           `mapstructure:"max_elements" yaml:"max_elements"`
	Include           []string      `mapstructure:"include" yaml:"include"`
	Exclude           []string      `mapstructure:"exclude" yaml:"exclude"`
	PacePerSecond     float64       `mapstructure:"pace_per_second" yaml:"pace_per_second"`
	SlowLoadThreshold time.Duration `mapstructure:"slow_load_threshold" yaml:"slow_load_threshold"`
	CheckLinks        bool          `mapstructure:"check_links" yaml:"check_links"`
}

// CrawlerConfig controls link discovery from the landing page.
type CrawlerConfig struct {
	// NavSelector scopes discovery to the navigation area of the page.
	NavSelector    string `mapstructure:"nav_selector" yaml:"nav_selector"`
	MaxLinks       int    `mapstructure:"max_links" yaml:"max_links"`
	SameOriginOnly bool   `mapstructure:"same_origin_only" yaml:"same_origin_only"`
}

// LoginConfig describes how to authenticate before sweeping. Password is
// only ever read from the environment.
type LoginConfig struct {
	URL      string `mapstructure:"url" yaml:"url"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"-"`
	// Selector chains tried in order until one matches.
	UsernameSelectors []string `mapstructure:"username_selectors" yaml:"username_selectors"`
	PasswordSelectors []string `mapstructure:"password_selectors" yaml:"password_selectors"`
	SubmitSelectors   []string `mapstructure:"submit_selectors" yaml:"submit_selectors"`
	// SuccessSelector must appear after submit for the login to count.
	SuccessSelector string `mapstructure:"success_selector" yaml:"success_selector"`
	// LoginPaths are tried against the site root when URL is empty.
	LoginPaths []string `mapstructure:"login_paths" yaml:"login_paths"`
}

// ReportConfig controls result output.
type ReportConfig struct {
	OutputDir string   `mapstructure:"output_dir" yaml:"output_dir"`
	Formats   []string `mapstructure:"formats" yaml:"formats"`
	Title     string   `mapstructure:"title" yaml:"title"`
}

// HistoryConfig controls the local run-history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ExpandedPath returns the history database path with a leading ~ resolved.
func (h HistoryConfig) ExpandedPath() (string, error) {
	return homedir.Expand(h.Path)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration section.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "qasweep")
	v.SetDefault("logger.log_file", "qasweep.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1440)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.quiet_period", "1500ms")
	v.SetDefault("browser.concurrency", 2)

	// -- Sweep --
	v.SetDefault("sweep.element_timeout", "10s")
	v.SetDefault("sweep.page_budget", "5m")
	v.SetDefault("sweep.max_elements", 0)
	v.SetDefault("sweep.pace_per_second", 0.0)
	v.SetDefault("sweep.slow_load_threshold", "10s")
	v.SetDefault("sweep.check_links", true)

	// -- Crawler --
	v.SetDefault("crawler.nav_selector", "nav, header, [role=navigation], .sidebar, .navbar")
	v.SetDefault("crawler.max_links", 25)
	v.SetDefault("crawler.same_origin_only", true)

	// -- Login --
	v.SetDefault("login.username_selectors", []string{
		"input[name=username]", "input[name=email]", "input[type=email]",
		"input[id=username]", "input[id=email]", "input[name=login]",
	})
	v.SetDefault("login.password_selectors", []string{
		"input[name=password]", "input[type=password]", "input[id=password]",
	})
	v.SetDefault("login.submit_selectors", []string{
		"button[type=submit]", "input[type=submit]", "button[name=login]",
		"button[id=login]", "form button",
	})
	v.SetDefault("login.login_paths", []string{"/login", "/signin", "/auth/login", "/users/sign_in", "/account/login"})

	// -- Report --
	v.SetDefault("report.output_dir", "qa-reports")
	v.SetDefault("report.formats", []string{"markdown", "html"})
	v.SetDefault("report.title", "QA Sweep Report")

	// -- History --
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "~/.qasweep/history.db")
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Credentials only ever come from the environment, never the config file.
	v.BindEnv("login.username", "QASWEEP_LOGIN_USERNAME")
	v.BindEnv("login.password", "QASWEEP_LOGIN_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// knownReportFormats are the writers the report package provides.
var knownReportFormats = map[string]struct{}{
	"markdown": {}, "html": {}, "json": {}, "junit": {},
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Browser.Concurrency <= 0 {
		return fmt.Errorf("browser.concurrency must be a positive integer")
	}
	if c.Sweep.ElementTimeout <= 0 {
		return fmt.Errorf("sweep.element_timeout must be a positive duration")
	}
	if c.Sweep.PageBudget <= 0 {
		return fmt.Errorf("sweep.page_budget must be a positive duration")
	}
	if c.Sweep.MaxElements < 0 {
		return fmt.Errorf("sweep.max_elements cannot be negative")
	}
	if c.Browser.QuietPeriod <= 0 {
		return fmt.Errorf("browser.quiet_period must be a positive duration")
	}
	for _, f := range c.Report.Formats {
		if _, ok := knownReportFormats[strings.ToLower(f)]; !ok {
			return fmt.Errorf("report.formats contains unknown format %q", f)
		}
	}
	return nil
}
