package scraper

import (
	"context"
	"time"

	"kuchikomi/internal/browser"
	"kuchikomi/internal/review"
	"kuchikomi/internal/strategy"
)

// Harvester collects reviews for one source inside a session owned by the caller.
type Harvester interface {
	Source() review.Source
	// Harvest navigates sess to url and collects up to limit records (limit <= 0
	// means no limit). An error means the source contributed nothing usable.
	Harvest(ctx context.Context, sess *browser.Session, url string, limit int) (Result, error)
}

// Result is what one harvest call produced.
type Result struct {
	Records []review.Record
	Reason  strategy.Reason
	Ticks   int
	Skipped int
}

// ResultFromOutcome copies a strategy outcome into a Result.
func ResultFromOutcome(o strategy.Outcome) Result {
	return Result{Records: o.Records, Reason: o.Reason, Ticks: o.Ticks, Skipped: o.Skipped}
}

// ScrollOptions tunes the infinite-scroll adapter.
type ScrollOptions struct {
	StallThreshold int
	MaxTicks       int
	StepPixels     int
	JitterMin      time.Duration
	JitterMax      time.Duration
	// ReviewWait bounds the wait for the first review node.
	ReviewWait        time.Duration
	NavigationTimeout time.Duration
}

// PagedOptions tunes the paginated adapters.
type PagedOptions struct {
	MaxPages  int
	JitterMin time.Duration
	JitterMax time.Duration
	// SettleMin/SettleMax bound the pause after each page load.
	SettleMin         time.Duration
	SettleMax         time.Duration
	NavigationTimeout time.Duration
	// ExpandLimit caps how many "read more" controls are clicked per page.
	ExpandLimit int
}

// Options carries the tunables every adapter may read.
type Options struct {
	Scroll ScrollOptions
	Paged  PagedOptions
}

// DefaultOptions mirrors the defaults of the config package.
func DefaultOptions() Options {
	return Options{
		Scroll: ScrollOptions{
			StallThreshold:    strategy.DefaultStallThreshold,
			MaxTicks:          strategy.DefaultMaxTicks,
			StepPixels:        3000,
			JitterMin:         800 * time.Millisecond,
			JitterMax:         1500 * time.Millisecond,
			ReviewWait:        20 * time.Second,
			NavigationTimeout: 60 * time.Second,
		},
		Paged: PagedOptions{
			MaxPages:          200,
			JitterMin:         time.Second,
			JitterMax:         2 * time.Second,
			SettleMin:         500 * time.Millisecond,
			SettleMax:         1500 * time.Millisecond,
			NavigationTimeout: 30 * time.Second,
			ExpandLimit:       20,
		},
	}
}

// Factory builds a harvester from options.
type Factory func(opts Options) Harvester
