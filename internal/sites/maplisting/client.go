package maplisting

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"kuchikomi/internal/browser"
	"kuchikomi/internal/review"
	"kuchikomi/internal/scraper"
	"kuchikomi/internal/strategy"
)

const reviewSelector = "[data-review-id]"

var (
	consentButtons = []string{`button[aria-label*="同意"]`, `button[aria-label*="Accept"]`}
	reviewTabs     = []string{`button[aria-label*="クチコミ"]`, `button[aria-label*="Reviews"]`, `[data-tab-index="1"]`}
)

// scrollJS walks up from the first review to the nearest scrollable ancestor and
// scrolls it by step pixels. It returns false when no such ancestor exists.
const scrollJS = `(step) => {
	const review = document.querySelector('[data-review-id]');
	if (!review) return false;
	let el = review.parentElement;
	for (let i = 0; i < 10 && el; i++) {
		const ov = window.getComputedStyle(el).overflowY;
		if ((ov === 'auto' || ov === 'scroll') && el.scrollHeight > el.clientHeight + 50) {
			el.scrollTop += step;
			return true;
		}
		el = el.parentElement;
	}
	return false;
}`

// expandJS opens every truncated review body.
const expandJS = `() => {
	const buttons = document.querySelectorAll('button.w8nwRe, button[jsaction*="expandReview"]');
	buttons.forEach(b => b.click());
	return buttons.length;
}`

// Client drives a map listing review panel inside a session.
type Client struct {
	sess *browser.Session
	opts scraper.ScrollOptions
}

// NewClient creates a Client bound to sess.
func NewClient(sess *browser.Session, opts scraper.ScrollOptions) *Client {
	return &Client{sess: sess, opts: opts}
}

// Source implements strategy.Adapter.
func (c *Client) Source() review.Source { return review.SourceMapListing }

// Open loads the place page, dismisses the consent dialog, switches to the
// reviews tab and waits for the first review to render.
func (c *Client) Open(ctx context.Context, url string) error {
	log := zerolog.Ctx(ctx)

	if err := c.sess.Navigate(ctx, url, browser.WaitNone, c.opts.NavigationTimeout); err != nil {
		return err
	}
	if err := pause(ctx, 3*time.Second); err != nil {
		return err
	}

	if sel, ok := c.sess.ClickFirst(ctx, consentButtons, 5*time.Second); ok {
		log.Debug().Str("selector", sel).Msg("dismissed consent dialog")
		_ = pause(ctx, time.Second)
	}
	if sel, ok := c.sess.ClickFirst(ctx, reviewTabs, 5*time.Second); ok {
		log.Info().Str("selector", sel).Msg("opened reviews tab")
	}

	if c.sess.WaitFor(ctx, reviewSelector, c.opts.ReviewWait) {
		log.Info().Msg("review list rendered")
	}
	return pause(ctx, 2*time.Second)
}

// RevealMore scrolls the review panel once, falling back to a wheel gesture
// when no scrollable container is found.
func (c *Client) RevealMore(ctx context.Context) (bool, error) {
	step := c.opts.StepPixels
	if c.sess.EvalBool(ctx, 5*time.Second, scrollJS, step) {
		return true, nil
	}
	if err := c.sess.Wheel(float64(step)); err != nil {
		return false, fmt.Errorf("failed to scroll page: %w", err)
	}
	return true, nil
}

// Snapshot expands truncated reviews and returns the page markup.
func (c *Client) Snapshot(ctx context.Context) (string, error) {
	if _, err := c.sess.Eval(ctx, 5*time.Second, expandJS); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("expanding reviews failed")
	}
	return c.sess.Snapshot(ctx)
}

// ParseSnapshot implements strategy.Adapter.
func (c *Client) ParseSnapshot(snapshot string) []review.Result {
	return ParseSnapshot(snapshot)
}

func pause(ctx context.Context, d time.Duration) error {
	return strategy.JitterPacer{Min: d, Max: d}.Pause(ctx)
}
