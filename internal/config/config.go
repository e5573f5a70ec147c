// Package config loads harvest tunables from defaults, an optional config file
// and KUCHIKOMI_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"kuchikomi/internal/browser"
	"kuchikomi/internal/scraper"
)

// EnvPrefix prefixes every environment override, e.g. KUCHIKOMI_SCROLL_MAX_TICKS.
const EnvPrefix = "KUCHIKOMI"

// ErrConfigInvalid is wrapped by every validation failure.
var ErrConfigInvalid = errors.New("invalid configuration")

// Config is the full set of tunables.
type Config struct {
	Browser BrowserConfig `mapstructure:"browser"`
	Scroll  ScrollConfig  `mapstructure:"scroll"`
	Paged   PagedConfig   `mapstructure:"paged"`
}

// BrowserConfig controls the browser each harvest launches.
type BrowserConfig struct {
	Headless   bool   `mapstructure:"headless"`
	Proxy      string `mapstructure:"proxy"`
	Bin        string `mapstructure:"bin"`
	UserAgent  string `mapstructure:"user_agent"`
	Locale     string `mapstructure:"locale"`
	Width      int    `mapstructure:"width"`
	Height     int    `mapstructure:"height"`
	BlockMedia bool   `mapstructure:"block_media"`
}

// ScrollConfig tunes infinite-scroll harvesting.
type ScrollConfig struct {
	StallThreshold    int           `mapstructure:"stall_threshold"`
	MaxTicks          int           `mapstructure:"max_ticks"`
	StepPixels        int           `mapstructure:"step_pixels"`
	JitterMin         time.Duration `mapstructure:"jitter_min"`
	JitterMax         time.Duration `mapstructure:"jitter_max"`
	ReviewWait        time.Duration `mapstructure:"review_wait"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
}

// PagedConfig tunes paginated harvesting.
type PagedConfig struct {
	MaxPages          int           `mapstructure:"max_pages"`
	JitterMin         time.Duration `mapstructure:"jitter_min"`
	JitterMax         time.Duration `mapstructure:"jitter_max"`
	SettleMin         time.Duration `mapstructure:"settle_min"`
	SettleMax         time.Duration `mapstructure:"settle_max"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	ExpandLimit       int           `mapstructure:"expand_limit"`
}

func setDefaults(v *viper.Viper) {
	def := scraper.DefaultOptions()

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.proxy", "")
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.user_agent", browser.DefaultUserAgent)
	v.SetDefault("browser.locale", browser.DefaultLocale)
	v.SetDefault("browser.width", browser.DefaultWidth)
	v.SetDefault("browser.height", browser.DefaultHeight)
	v.SetDefault("browser.block_media", false)

	v.SetDefault("scroll.stall_threshold", def.Scroll.StallThreshold)
	v.SetDefault("scroll.max_ticks", def.Scroll.MaxTicks)
	v.SetDefault("scroll.step_pixels", def.Scroll.StepPixels)
	v.SetDefault("scroll.jitter_min", def.Scroll.JitterMin)
	v.SetDefault("scroll.jitter_max", def.Scroll.JitterMax)
	v.SetDefault("scroll.review_wait", def.Scroll.ReviewWait)
	v.SetDefault("scroll.navigation_timeout", def.Scroll.NavigationTimeout)

	v.SetDefault("paged.max_pages", def.Paged.MaxPages)
	v.SetDefault("paged.jitter_min", def.Paged.JitterMin)
	v.SetDefault("paged.jitter_max", def.Paged.JitterMax)
	v.SetDefault("paged.settle_min", def.Paged.SettleMin)
	v.SetDefault("paged.settle_max", def.Paged.SettleMax)
	v.SetDefault("paged.navigation_timeout", def.Paged.NavigationTimeout)
	v.SetDefault("paged.expand_limit", def.Paged.ExpandLimit)
}

// Load resolves the configuration. path may be empty; a named file that cannot
// be read is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// KUCHIKOMI_PROXY is the documented proxy variable.
	if err := v.BindEnv("browser.proxy", EnvPrefix+"_PROXY", EnvPrefix+"_BROWSER_PROXY"); err != nil {
		return nil, fmt.Errorf("failed to bind proxy env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects non-positive bounds and inverted jitter ranges.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	window := func(name string, lo, hi time.Duration) {
		if lo < 0 || hi < lo {
			errs = append(errs, fmt.Errorf("%s range %s..%s is invalid", name, lo, hi))
		}
	}
	timeout := func(name string, d time.Duration) {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}

	positive("browser.width", c.Browser.Width)
	positive("browser.height", c.Browser.Height)

	positive("scroll.stall_threshold", c.Scroll.StallThreshold)
	positive("scroll.max_ticks", c.Scroll.MaxTicks)
	positive("scroll.step_pixels", c.Scroll.StepPixels)
	window("scroll.jitter", c.Scroll.JitterMin, c.Scroll.JitterMax)
	timeout("scroll.review_wait", c.Scroll.ReviewWait)
	timeout("scroll.navigation_timeout", c.Scroll.NavigationTimeout)

	positive("paged.max_pages", c.Paged.MaxPages)
	window("paged.jitter", c.Paged.JitterMin, c.Paged.JitterMax)
	window("paged.settle", c.Paged.SettleMin, c.Paged.SettleMax)
	timeout("paged.navigation_timeout", c.Paged.NavigationTimeout)
	if c.Paged.ExpandLimit < 0 {
		errs = append(errs, fmt.Errorf("paged.expand_limit must not be negative, got %d", c.Paged.ExpandLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, errors.Join(errs...))
	}
	return nil
}

// LaunchConfig converts the browser section for browser.Open.
func (c *Config) LaunchConfig() browser.Config {
	return browser.Config{
		ProxyURL:   c.Browser.Proxy,
		Headless:   c.Browser.Headless,
		Bin:        c.Browser.Bin,
		UserAgent:  c.Browser.UserAgent,
		Locale:     c.Browser.Locale,
		Width:      c.Browser.Width,
		Height:     c.Browser.Height,
		BlockMedia: c.Browser.BlockMedia,
	}
}

// ScraperOptions converts the strategy sections for the adapters.
func (c *Config) ScraperOptions() scraper.Options {
	return scraper.Options{
		Scroll: scraper.ScrollOptions{
			StallThreshold:    c.Scroll.StallThreshold,
			MaxTicks:          c.Scroll.MaxTicks,
			StepPixels:        c.Scroll.StepPixels,
			JitterMin:         c.Scroll.JitterMin,
			JitterMax:         c.Scroll.JitterMax,
			ReviewWait:        c.Scroll.ReviewWait,
			NavigationTimeout: c.Scroll.NavigationTimeout,
		},
		Paged: scraper.PagedOptions{
			MaxPages:          c.Paged.MaxPages,
			JitterMin:         c.Paged.JitterMin,
			JitterMax:         c.Paged.JitterMax,
			SettleMin:         c.Paged.SettleMin,
			SettleMax:         c.Paged.SettleMax,
			NavigationTimeout: c.Paged.NavigationTimeout,
			ExpandLimit:       c.Paged.ExpandLimit,
		},
	}
}
