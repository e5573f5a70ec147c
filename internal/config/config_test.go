package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kuchikomi/internal/config"
	"kuchikomi/internal/scraper"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "ja-JP", cfg.Browser.Locale)
	assert.Equal(t, scraper.DefaultOptions(), cfg.ScraperOptions())
	assert.Equal(t, 8, cfg.Scroll.StallThreshold)
	assert.Equal(t, 150, cfg.Scroll.MaxTicks)
	assert.Equal(t, 30*time.Second, cfg.Paged.NavigationTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KUCHIKOMI_SCROLL_MAX_TICKS", "40")
	t.Setenv("KUCHIKOMI_PAGED_JITTER_MAX", "3s")
	t.Setenv("KUCHIKOMI_PROXY", "http://127.0.0.1:8888")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Scroll.MaxTicks)
	assert.Equal(t, 3*time.Second, cfg.Paged.JitterMax)
	assert.Equal(t, "http://127.0.0.1:8888", cfg.LaunchConfig().ProxyURL)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kuchikomi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
browser:
  headless: false
  block_media: true
scroll:
  stall_threshold: 4
paged:
  max_pages: 10
  settle_min: 100ms
  settle_max: 200ms
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	launch := cfg.LaunchConfig()
	assert.False(t, launch.Headless)
	assert.True(t, launch.BlockMedia)

	opts := cfg.ScraperOptions()
	assert.Equal(t, 4, opts.Scroll.StallThreshold)
	assert.Equal(t, 10, opts.Paged.MaxPages)
	assert.Equal(t, 100*time.Millisecond, opts.Paged.SettleMin)
	assert.Equal(t, 200*time.Millisecond, opts.Paged.SettleMax)
	// untouched keys keep their defaults
	assert.Equal(t, 150, opts.Scroll.MaxTicks)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Scroll.StallThreshold = 0
	cfg.Paged.JitterMin = 3 * time.Second
	cfg.Paged.JitterMax = time.Second

	err = cfg.Validate()
	require.ErrorIs(t, err, config.ErrConfigInvalid)
	assert.Contains(t, err.Error(), "scroll.stall_threshold")
	assert.Contains(t, err.Error(), "paged.jitter")
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("KUCHIKOMI_SCROLL_MAX_TICKS", "-1")

	_, err := config.Load("")
	assert.ErrorIs(t, err, config.ErrConfigInvalid)
}
