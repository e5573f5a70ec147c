package strategy

import (
	"context"

	"github.com/rs/zerolog"

	"kuchikomi/internal/review"
)

// PagedWalk walks listing pages in order, accumulating records until a page adds
// nothing new, there is no next page, or the limit is met.
type PagedWalk struct {
	Pacer Pacer
	// MaxPages bounds the walk; 0 means unbounded.
	MaxPages int
}

// Run collects from the page the adapter is currently on and onward. limit <= 0
// means no limit.
func (p PagedWalk) Run(ctx context.Context, a Adapter, limit int) Outcome {
	pacer := p.Pacer
	if pacer == nil {
		pacer = NoPause{}
	}
	log := zerolog.Ctx(ctx).With().Str("source", string(a.Source())).Logger()

	c := review.NewCollector(a.Source())
	var out Outcome

	for page := 1; ; page++ {
		out.Ticks = page

		snapshot, err := a.Snapshot(ctx)
		if err != nil {
			log.Warn().Err(err).Int("page", page).Msg("failed to read page")
			out.Reason = ReasonNavigationFailed
			break
		}

		added, failed := c.AddAll(a.ParseSnapshot(snapshot))
		if failed > 0 {
			log.Debug().Int("page", page).Int("skipped", failed).Msg("skipped malformed review nodes")
		}
		if added == 0 {
			log.Info().Int("page", page).Msg("reached last page")
			out.Reason = ReasonEmptyPage
			break
		}
		log.Info().Int("page", page).Int("added", added).Int("total", c.Len()).Msg("page collected")

		if limit > 0 && c.Len() >= limit {
			out.Reason = ReasonLimitReached
			break
		}
		if p.MaxPages > 0 && page >= p.MaxPages {
			out.Reason = ReasonIterationCap
			break
		}

		if err := pacer.Pause(ctx); err != nil {
			out.Reason = ReasonCancelled
			break
		}

		more, err := a.RevealMore(ctx)
		if err != nil {
			log.Warn().Err(err).Int("page", page+1).Msg("failed to open next page")
			out.Reason = ReasonNavigationFailed
			break
		}
		if !more {
			out.Reason = ReasonNoNextPage
			break
		}
	}

	out.Records = c.Records(limit)
	out.Skipped = c.Skipped()
	return out
}
