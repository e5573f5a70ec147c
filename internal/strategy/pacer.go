package strategy

import (
	"context"
	"math/rand"
	"time"
)

// Pacer pauses between disclosure steps.
type Pacer interface {
	Pause(ctx context.Context) error
}

// JitterPacer sleeps a uniformly random duration in [Min, Max].
type JitterPacer struct {
	Min time.Duration
	Max time.Duration
}

// Next draws the next pause length.
func (p JitterPacer) Next() time.Duration {
	if p.Max <= p.Min {
		return p.Min
	}
	return p.Min + time.Duration(rand.Int63n(int64(p.Max-p.Min+1)))
}

// Pause sleeps for Next() or until ctx is done.
func (p JitterPacer) Pause(ctx context.Context) error {
	d := p.Next()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoPause never sleeps. It still reports cancellation.
type NoPause struct{}

func (NoPause) Pause(ctx context.Context) error { return ctx.Err() }
