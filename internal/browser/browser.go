package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	DefaultLocale    = "ja-JP"
	DefaultWidth     = 1280
	DefaultHeight    = 900
)

// Config holds browser launch and fingerprint settings.
type Config struct {
	ProxyURL  string
	Headless  bool
	Bin       string // optional Chromium binary; rod downloads one when empty
	UserAgent string
	Locale    string
	Width     int
	Height    int
	// BlockMedia stops images, fonts and video from loading.
	BlockMedia bool
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	return c
}

// Browser wraps a rod.Browser and the launcher process behind it.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      Config
}

// New launches Chromium with automation-detection flags disabled and connects to it.
func New(ctx context.Context, cfg Config) (*Browser, error) {
	cfg = cfg.withDefaults()

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		NoSandbox(true).
		Set(flags.Flag("disable-blink-features"), "AutomationControlled").
		Set(flags.Flag("disable-dev-shm-usage")).
		Set(flags.Flag("disable-setuid-sandbox")).
		Set(flags.Flag("disable-infobars")).
		Set(flags.Flag("window-size"), strconv.Itoa(cfg.Width)+","+strconv.Itoa(cfg.Height)).
		Set(flags.Flag("lang"), cfg.Locale)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, &SessionError{Stage: StageLaunch, Err: err}
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, &SessionError{Stage: StageConnect, Err: err}
	}

	return &Browser{browser: b, launcher: l, cfg: cfg}, nil
}

// ProxyURL returns the proxy the browser was launched with.
func (b *Browser) ProxyURL() string {
	return b.cfg.ProxyURL
}

// NewPage opens a stealth page with the configured user agent, viewport and locale.
// The anti-detection scripts are registered before any navigation happens.
func (b *Browser) NewPage() (*rod.Page, error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := b.harden(page); err != nil {
		_ = page.Close()
		return nil, err
	}
	return page, nil
}

func (b *Browser) harden(page *rod.Page) error {
	cfg := b.cfg

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: acceptLanguage(cfg.Locale),
	}); err != nil {
		return fmt.Errorf("failed to set user agent: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.Width,
		Height:            cfg.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}

	if err := (proto.EmulationSetLocaleOverride{Locale: cfg.Locale}).Call(page); err != nil {
		return fmt.Errorf("failed to set locale: %w", err)
	}

	if _, err := page.EvalOnNewDocument(navigatorOverrides(cfg.Locale)); err != nil {
		return fmt.Errorf("failed to install init script: %w", err)
	}

	if cfg.BlockMedia {
		// Non-fatal: blocking only saves bandwidth.
		_ = proto.NetworkSetBlockedURLs{Urls: blockedURLs}.Call(page)
	}
	return nil
}

// Close closes the browser and kills the launcher process.
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return err
}

var blockedURLs = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.avif", "*.ico",
	"*.woff", "*.woff2", "*.ttf", "*.otf",
	"*.mp4", "*.webm", "*.mp3",
}

func acceptLanguage(locale string) string {
	lang, _, found := strings.Cut(locale, "-")
	if !found {
		return locale + ",en-US;q=0.8"
	}
	return locale + "," + lang + ";q=0.9,en-US;q=0.8"
}

func navigatorOverrides(locale string) string {
	lang := strconv.Quote(locale)
	return `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3] });
Object.defineProperty(navigator, 'languages', { get: () => [` + lang + `, 'en-US'] });
window.chrome = { runtime: {} };
`
}
