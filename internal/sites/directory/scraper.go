package directory

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
	scraper.Register(review.SourceDirectory, func(opts scraper.Options) scraper.Harvester {
		return &Scraper{opts: opts.Paged}
	})
}

// Scraper harvests a paginated restaurant directory.
type Scraper struct {
	opts scraper.PagedOptions
}

// Source returns the source id.
func (s *Scraper) Source() review.Source { return review.SourceDirectory }

// Harvest walks the review list pages of the restaurant at url.
func (s *Scraper) Harvest(ctx context.Context, sess *browser.Session, url string, limit int) (scraper.Result, error) {
	log := zerolog.Ctx(ctx)
	log.Info().Str("url", url).Int("limit", limit).Msg("directory harvest started")

	client := NewClient(sess, s.opts)
	if err := client.Open(ctx, url); err != nil {
		return scraper.Result{}, fmt.Errorf("failed to open review list: %w", err)
	}

	walk := strategy.PagedWalk{
		Pacer:    strategy.JitterPacer{Min: s.opts.JitterMin, Max: s.opts.JitterMax},
		MaxPages: s.opts.MaxPages,
	}
	out := walk.Run(ctx, client, limit)

	log.Info().
		Str("reason", string(out.Reason)).
		Int("pages", out.Ticks).
		Int("records", len(out.Records)).
		Msg("directory harvest finished")
	return scraper.ResultFromOutcome(out), nil
}
