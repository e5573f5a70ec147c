package directory

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"kuchikomi/internal/browser"
	"kuchikomi/internal/review"
	"kuchikomi/internal/scraper"
	"kuchikomi/internal/strategy"
)

// PageSize is the number of reviews the directory lists per page.
const PageSize = 20

// ReviewListURL turns a restaurant URL into its review list URL.
func ReviewListURL(raw string) string {
	base := strings.TrimRight(raw, "/")
	if i := strings.Index(base, "/dtlrvwlst"); i >= 0 {
		return base[:i] + "/dtlrvwlst/"
	}
	return base + "/dtlrvwlst/"
}

// PageURL returns the URL of the n-th review list page (1-based). Pages after
// the first carry the offset of their first review in the rvw_cnt parameter.
func PageURL(listURL string, n int) (string, error) {
	if n <= 1 {
		return listURL, nil
	}
	u, err := url.Parse(listURL)
	if err != nil {
		return "", fmt.Errorf("invalid review list url %q: %w", listURL, err)
	}
	q := u.Query()
	q.Set("lc", "2")
	q.Set("rvw_cnt", strconv.Itoa((n-1)*PageSize+1))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Client walks the directory's review list pages inside a session.
type Client struct {
	sess    *browser.Session
	opts    scraper.PagedOptions
	listURL string
	page    int
	last    string
}

// NewClient creates a Client bound to sess.
func NewClient(sess *browser.Session, opts scraper.PagedOptions) *Client {
	return &Client{sess: sess, opts: opts}
}

// Source implements strategy.Adapter.
func (c *Client) Source() review.Source { return review.SourceDirectory }

// Open loads the first review list page for the restaurant at rawURL.
func (c *Client) Open(ctx context.Context, rawURL string) error {
	c.listURL = ReviewListURL(rawURL)
	c.page = 1
	return c.load(ctx, c.listURL)
}

// RevealMore navigates to the next page when the last snapshot shows one.
func (c *Client) RevealMore(ctx context.Context) (bool, error) {
	if !HasNextPage(c.last) {
		return false, nil
	}
	next, err := PageURL(c.listURL, c.page+1)
	if err != nil {
		return false, err
	}
	if err := c.load(ctx, next); err != nil {
		return false, err
	}
	c.page++
	return true, nil
}

// Snapshot returns the current page markup and remembers it for RevealMore.
func (c *Client) Snapshot(ctx context.Context) (string, error) {
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
	zerolog.Ctx(ctx).Info().Int("page", c.page).Str("url", pageURL).Msg("fetching review page")
	if err := c.sess.Navigate(ctx, pageURL, browser.WaitIdle, c.opts.NavigationTimeout); err != nil {
		return err
	}
	return strategy.JitterPacer{Min: c.opts.SettleMin, Max: c.opts.SettleMax}.Pause(ctx)
}
