package maplisting

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"kuchikomi/internal/browser"
	"kuchikomi/internal/review"
	"kuchikomi/internal/scraper"
	"kuchikomi/internal/strategy"
)

func init() {
	scraper.Register(review.SourceMapListing, func(opts scraper.Options) scraper.Harvester {
		return &Scraper{opts: opts.Scroll}
	})
}

// Scraper harvests an infinite-scroll map listing.
type Scraper struct {
	opts scraper.ScrollOptions
}

// Source returns the source id.
func (s *Scraper) Source() review.Source { return review.SourceMapListing }

// Harvest opens url in sess and scrolls the review panel until it converges.
func (s *Scraper) Harvest(ctx context.Context, sess *browser.Session, url string, limit int) (scraper.Result, error) {
	log := zerolog.Ctx(ctx)
	log.Info().Str("url", url).Int("limit", limit).Msg("map listing harvest started")

	client := NewClient(sess, s.opts)
	if err := client.Open(ctx, url); err != nil {
		return scraper.Result{}, fmt.Errorf("failed to open map listing: %w", err)
	}

	loop := strategy.ScrollConvergence{
		StallThreshold: s.opts.StallThreshold,
		MaxTicks:       s.opts.MaxTicks,
		Pacer:          strategy.JitterPacer{Min: s.opts.JitterMin, Max: s.opts.JitterMax},
	}
	out := loop.Run(ctx, client, limit)

	log.Info().
		Str("reason", string(out.Reason)).
		Int("ticks", out.Ticks).
		Int("records", len(out.Records)).
		Msg("map listing harvest finished")
	return scraper.ResultFromOutcome(out), nil
}
