package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env      string `env:"APP_ENV" env-default:"development" env-description:"development or production"`
		Port     int    `env:"APP_PORT" env-default:"8080"`
		LogLevel string `env:"APP_LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`
		LogFile  string `env:"APP_LOG_FILE" env-description:"also write JSON logs to this file"`
		// Proxies whose X-Forwarded-For is believed; empty trusts none.
		TrustedProxies []string `env:"APP_TRUSTED_PROXIES" env-separator:"," env-description:"comma separated IPs or CIDRs"`
	}
	Catalog struct {
		Path string `env:"CATALOG_PATH" env-default:"videos.json"`
	}
	Fonts struct {
		Regular string `env:"FONT_REGULAR" env-description:"TTF/OTF/TTC with CJK glyphs"`
		Bold    string `env:"FONT_BOLD"`
	}
	YouTube struct {
		APIKey    string `env:"YOUTUBE_API_KEY"`
		ChannelID string `env:"YOUTUBE_CHANNEL_ID" env-default:"UCj4PjeVMnNTHIR5EeoNKPAw"`
	}
	Render struct {
		FetchTimeout  time.Duration `env:"FETCH_TIMEOUT" env-default:"12s"`
		RatePerMinute int           `env:"RENDER_RATE_PER_MINUTE" env-default:"30"`
		Burst         int           `env:"RENDER_BURST" env-default:"5"`
	}
	Share struct {
		Delay time.Duration `env:"SHARE_DELAY" env-default:"800ms"`
	}
	Session struct {
		IdleTTL       time.Duration `env:"SESSION_IDLE_TTL" env-default:"2h" env-description:"forget sessions idle this long"`
		SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" env-default:"5m"`
	}
}

// New reads the configuration from the environment.
func New() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		help, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("read configuration: %w\n%s", err, help)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.App.Port < 1 || c.App.Port > 65535 {
		return fmt.Errorf("APP_PORT out of range: %d", c.App.Port)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Render.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive: %s", c.Render.FetchTimeout)
	}
	if c.Share.Delay < 0 {
		return fmt.Errorf("SHARE_DELAY must not be negative: %s", c.Share.Delay)
	}
	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive: %s", c.Session.IdleTTL)
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive: %s", c.Session.SweepInterval)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// Level parses APP_LOG_LEVEL.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return 0, fmt.Errorf("APP_LOG_LEVEL: %w", err)
	}
	return l, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}
