package strategy

import (
	"context"

	"github.com/rs/zerolog"

	"kuchikomi/internal/review"
)

const (
	DefaultStallThreshold = 8
	DefaultMaxTicks       = 150
)

// ScrollConvergence keeps scrolling an infinite list until new records stop
// appearing for StallThreshold consecutive ticks, the limit is met, or MaxTicks
// ticks have run.
type ScrollConvergence struct {
	StallThreshold int
	MaxTicks       int
	Pacer          Pacer
}

func (s ScrollConvergence) withDefaults() ScrollConvergence {
	if s.StallThreshold <= 0 {
		s.StallThreshold = DefaultStallThreshold
	}
	if s.MaxTicks <= 0 {
		s.MaxTicks = DefaultMaxTicks
	}
	if s.Pacer == nil {
		s.Pacer = NoPause{}
	}
	return s
}

// Run drives a until it converges. limit <= 0 means no limit.
func (s ScrollConvergence) Run(ctx context.Context, a Adapter, limit int) Outcome {
	s = s.withDefaults()
	log := zerolog.Ctx(ctx).With().Str("source", string(a.Source())).Logger()

	c := review.NewCollector(a.Source())
	out := Outcome{Reason: ReasonIterationCap}
	last, stalls := 0, 0

	for tick := 1; tick <= s.MaxTicks; tick++ {
		out.Ticks = tick

		moved, err := a.RevealMore(ctx)
		if err != nil {
			log.Debug().Err(err).Int("tick", tick).Msg("reveal failed")
		} else if !moved {
			log.Debug().Int("tick", tick).Msg("reveal reported no movement")
		}

		if err := s.Pacer.Pause(ctx); err != nil {
			out.Reason = ReasonCancelled
			break
		}

		snapshot, err := a.Snapshot(ctx)
		if err != nil {
			log.Warn().Err(err).Int("tick", tick).Msg("snapshot failed, counting tick as stalled")
		} else {
			_, failed := c.AddAll(a.ParseSnapshot(snapshot))
			if failed > 0 {
				log.Debug().Int("tick", tick).Int("skipped", failed).Msg("skipped malformed review nodes")
			}
		}

		count := c.Len()
		if count != last || tick%10 == 0 {
			log.Info().Int("tick", tick).Int("count", count).Msg("scrolling")
		}

		if limit > 0 && count >= limit {
			out.Reason = ReasonLimitReached
			break
		}

		if count > last {
			stalls = 0
		} else {
			stalls++
			if stalls >= s.StallThreshold {
				out.Reason = ReasonConverged
				break
			}
		}
		last = count
	}

	out.Records = c.Records(limit)
	out.Skipped = c.Skipped()
	return out
}
