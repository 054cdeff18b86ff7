// Package config holds the root configuration for firebird, loaded
// through Viper from config.yaml, environment variables and CLI flags.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	instance *Config
	once     sync.Once
)

// Config is the root configuration structure for the whole application.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger"`
	Browser BrowserConfig `mapstructure:"browser"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	Output  OutputConfig  `mapstructure:"output"`
	Mail    MailConfig    `mapstructure:"mail"`
}

// ColorConfig defines console color settings per log level.
type ColorConfig struct {
	Debug string `mapstructure:"debug"`
	Info  string `mapstructure:"info"`
	Warn  string `mapstructure:"warn"`
	Error string `mapstructure:"error"`
	Fatal string `mapstructure:"fatal"`
}

// LoggerConfig holds all configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level"`
	Format      string      `mapstructure:"format"`
	AddSource   bool        `mapstructure:"add_source"`
	ServiceName string      `mapstructure:"service_name"`
	LogFile     string      `mapstructure:"log_file"`
	MaxSize     int         `mapstructure:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups"`
	MaxAge      int         `mapstructure:"max_age"`
	Compress    bool        `mapstructure:"compress"`
	Colors      ColorConfig `mapstructure:"colors"`
}

// BrowserConfig holds settings for the headless browser session.
type BrowserConfig struct {
	Headless        bool `mapstructure:"headless"`
	IgnoreTLSErrors bool `mapstructure:"ignore_tls_errors"`
	// NavigationTimeout bounds a single page load.
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	// LongWait is the implicit wait applied at page-transition
	// boundaries; ShortWait gives popups and lazily rendered elements a
	// moment to appear. Fine-grained scraping runs with the implicit
	// wait at zero.
	LongWait  time.Duration `mapstructure:"long_wait"`
	ShortWait time.Duration `mapstructure:"short_wait"`
	// PollInterval is how often an implicit-wait query re-checks the DOM.
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// ScrapeConfig holds settings for the extraction core.
type ScrapeConfig struct {
	// Attempts is the supervisor's whole-scrape retry budget.
	Attempts int `mapstructure:"attempts"`
	// ClickAttempts and ClickInterval bound the per-element click retry.
	ClickAttempts int           `mapstructure:"click_attempts"`
	ClickInterval time.Duration `mapstructure:"click_interval"`
	// CompositeScreenCap bounds the customisation-dialog screen loop and
	// BasketFillCap bounds the delivery survey's minimum-order loop.
	// Both convert a page that never settles into a reported fault.
	CompositeScreenCap int `mapstructure:"composite_screen_cap"`
	BasketFillCap      int `mapstructure:"basket_fill_cap"`
	// PostcodeSuffix is appended to a delivery area's first token to
	// synthesize a representative postcode for fee probing.
	PostcodeSuffix string `mapstructure:"postcode_suffix"`
	// SurveyDeliveryFees toggles the per-area delivery fee survey.
	SurveyDeliveryFees bool `mapstructure:"survey_delivery_fees"`
}

// OutputConfig holds settings for the output store.
type OutputConfig struct {
	// Root is the directory under which per-restaurant output
	// directories are created.
	Root string `mapstructure:"root"`
}

// MailConfig holds settings for the result notification email.
type MailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
	Password string `mapstructure:"password"`
}

// SetDefaults registers default values so the app can run with a
// minimal (or absent) config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "firebird")
	v.SetDefault("logger.log_file", "logs.txt")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", 60*time.Second)
	v.SetDefault("browser.long_wait", 30*time.Second)
	v.SetDefault("browser.short_wait", 5*time.Second)
	v.SetDefault("browser.poll_interval", 100*time.Millisecond)

	v.SetDefault("scrape.attempts", 3)
	v.SetDefault("scrape.click_attempts", 10)
	v.SetDefault("scrape.click_interval", time.Second)
	v.SetDefault("scrape.composite_screen_cap", 25)
	v.SetDefault("scrape.basket_fill_cap", 30)
	v.SetDefault("scrape.postcode_suffix", "1NH")
	v.SetDefault("scrape.survey_delivery_fees", true)

	v.SetDefault("output.root", "Restaurant_Files")

	v.SetDefault("mail.enabled", true)
	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "ged.firebird@gmail.com")
}

// Validate checks the configuration for values the core cannot work with.
func (c *Config) Validate() error {
	if c.Scrape.Attempts < 1 {
		return fmt.Errorf("scrape.attempts must be at least 1, got %d", c.Scrape.Attempts)
	}
	if c.Scrape.ClickAttempts < 1 {
		return fmt.Errorf("scrape.click_attempts must be at least 1, got %d", c.Scrape.ClickAttempts)
	}
	if c.Scrape.CompositeScreenCap < 1 {
		return fmt.Errorf("scrape.composite_screen_cap must be at least 1, got %d", c.Scrape.CompositeScreenCap)
	}
	if c.Scrape.BasketFillCap < 1 {
		return fmt.Errorf("scrape.basket_fill_cap must be at least 1, got %d", c.Scrape.BasketFillCap)
	}
	if c.Browser.LongWait <= 0 || c.Browser.PollInterval <= 0 {
		return fmt.Errorf("browser.long_wait and browser.poll_interval must be positive")
	}
	if c.Output.Root == "" {
		return fmt.Errorf("output.root must not be empty")
	}
	if c.Mail.Enabled {
		if c.Mail.To == "" {
			return fmt.Errorf("mail.to is required when mail is enabled")
		}
		if c.Mail.Host == "" || c.Mail.Port == 0 {
			return fmt.Errorf("mail.host and mail.port are required when mail is enabled")
		}
	}
	return nil
}

// Load initializes the configuration singleton from Viper.
func Load(v *viper.Viper) error {
	var loadErr error
	once.Do(func() {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			loadErr = fmt.Errorf("error unmarshaling config: %w", err)
			return
		}
		instance = &cfg
	})
	return loadErr
}

// Set stores the configuration instance directly. Used by tests.
func Set(cfg *Config) {
	instance = cfg
}

// Get returns the loaded configuration instance.
func Get() *Config {
	if instance == nil {
		panic("configuration not initialized; call config.Load() in the root command")
	}
	return instance
}
