package travelsite

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"kuchikomi/internal/browser"
	"kuchikomi/internal/review"
	"kuchikomi/internal/scraper"
	"kuchikomi/internal/strategy"
)

// PageSize is the number of reviews the travel site shows per page.
const PageSize = 15

const expandSelector = `button[data-test-target="expand-review"], button.taLnk.ulBlueLinks, span.taLnk`

var reviewsToken = regexp.MustCompile(`-(?:or\d+-)?Reviews-`)

// PageURL returns the URL of the n-th review page (1-based) by rewriting the
// "-Reviews-" path token into "-orOFFSET-Reviews-". A URL without the token has
// no addressable pages beyond the first.
func PageURL(raw string, n int) (string, bool) {
	loc := reviewsToken.FindStringIndex(raw)
	if loc == nil {
		return raw, n <= 1
	}
	token := "-Reviews-"
	if n > 1 {
		token = fmt.Sprintf("-or%d-Reviews-", (n-1)*PageSize)
	}
	return raw[:loc[0]] + token + raw[loc[1]:], true
}

// Client walks travel site review pages, expanding truncated reviews first.
type Client struct {
	sess *browser.Session
	opts scraper.PagedOptions
	url  string
	page int
	last string
}

// NewClient creates a Client bound to sess.
func NewClient(sess *browser.Session, opts scraper.PagedOptions) *Client {
	return &Client{sess: sess, opts: opts}
}

// Source implements strategy.Adapter.
func (c *Client) Source() review.Source { return review.SourceTravelSite }

// Open loads the first review page of the listing at rawURL.
func (c *Client) Open(ctx context.Context, rawURL string) error {
	first, _ := PageURL(rawURL, 1)
	c.url = rawURL
	c.page = 1
	return c.load(ctx, first)
}

// RevealMore moves to the next review page when one is linked.
func (c *Client) RevealMore(ctx context.Context) (bool, error) {
	if !HasNextPage(c.last, c.page) {
		return false, nil
	}
	next, ok := PageURL(c.url, c.page+1)
	if !ok {
		return false, nil
	}
	if err := c.load(ctx, next); err != nil {
		return false, err
	}
	c.page++
	return true, nil
}

// Snapshot expands "read more" controls and returns the page markup.
func (c *Client) Snapshot(ctx context.Context) (string, error) {
	if n := c.sess.ClickAll(ctx, expandSelector, c.opts.ExpandLimit, 300*time.Millisecond); n > 0 {
		zerolog.Ctx(ctx).Debug().Int("expanded", n).Msg("expanded truncated reviews")
	}
	html, err := c.sess.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	c.last = html
	return html, nil
}

// ParseSnapshot implements strategy.Adapter.
func (c *Client) ParseSnapshot(snapshot string) []review.Result {
	return ParseSnapshot(snapshot)
}

func (c *Client) load(ctx context.Context, pageURL string) error {
	zerolog.Ctx(ctx).Info().Str("url", pageURL).Msg("fetching review page")
	if err := c.sess.Navigate(ctx, pageURL, browser.WaitIdle, c.opts.NavigationTimeout); err != nil {
		return err
	}
	return strategy.JitterPacer{Min: c.opts.SettleMin, Max: c.opts.SettleMax}.Pause(ctx)
}
